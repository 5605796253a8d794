package pebblestore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norndb/norn/pkg/store"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPebbleStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	err := db.Update(func(txn store.Txn) error {
		return txn.Set([]byte("rec:users:1"), []byte("alice"))
	})
	require.NoError(t, err)

	err = db.View(func(txn store.Txn) error {
		value, err := txn.Get([]byte("rec:users:1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("alice"), value)
		return nil
	})
	require.NoError(t, err)
}

func TestPebbleStore_NotFound(t *testing.T) {
	db := openTestDB(t)

	err := db.View(func(txn store.Txn) error {
		_, err := txn.Get([]byte("missing"))
		return err
	})
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestPebbleStore_ViewRejectsWrites(t *testing.T) {
	db := openTestDB(t)

	err := db.View(func(txn store.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	assert.ErrorIs(t, err, store.ErrReadOnlyTxn)

	err = db.View(func(txn store.Txn) error {
		return txn.Delete([]byte("k"))
	})
	assert.ErrorIs(t, err, store.ErrReadOnlyTxn)
}

func TestPebbleStore_UpdateErrorDiscardsWrites(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := db.Update(func(txn store.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = db.View(func(txn store.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestPebbleStore_UpdateSeesOwnWrites(t *testing.T) {
	db := openTestDB(t)

	err := db.Update(func(txn store.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		value, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("v"), value)

		if err := txn.Delete([]byte("k")); err != nil {
			return err
		}
		_, err = txn.Get([]byte("k"))
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestPebbleStore_ScanPrefixOrdered(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Update(func(txn store.Txn) error {
		for _, k := range []string{"idx:users:color:red", "idx:users:color:blue", "idx:orders:total:10"} {
			if err := txn.Set([]byte(k), []byte("x")); err != nil {
				return err
			}
		}
		return nil
	}))

	var keys []string
	err := db.View(func(txn store.Txn) error {
		return txn.Scan([]byte("idx:users:"), func(key, value []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"idx:users:color:blue", "idx:users:color:red"}, keys)
}
