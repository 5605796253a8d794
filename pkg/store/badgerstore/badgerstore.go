// Package badgerstore implements store.Backend on BadgerDB, the default
// engine. Badger provides serializable transactions, which gives the
// record layer its record-and-index atomicity for free.
package badgerstore

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/norndb/norn/pkg/store"
)

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return store.ErrKeyNotFound
	case errors.Is(err, badger.ErrConflict):
		return store.ErrConflict
	case errors.Is(err, badger.ErrReadOnlyTxn):
		return store.ErrReadOnlyTxn
	default:
		return &store.BackendError{Err: err}
	}
}

// DB is a badger-backed store.Backend.
type DB struct {
	db *badger.DB
}

// Open opens (creating if needed) a badger database rooted at dir.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's default logger writes to stderr
	db, err := badger.Open(opts)
	if err != nil {
		return nil, translateError(err)
	}
	return &DB{db: db}, nil
}

// View runs fn in a read-only transaction.
func (d *DB) View(fn func(store.Txn) error) error {
	return d.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

// Update runs fn in a read-write transaction; an error aborts it.
func (d *DB) Update(fn func(store.Txn) error) error {
	var fnErr error
	err := d.db.Update(func(txn *badger.Txn) error {
		fnErr = fn(&badgerTxn{txn: txn})
		return fnErr
	})
	if err != nil && err == fnErr {
		// Caller's error, not badger's; pass it through untranslated.
		return err
	}
	return translateError(err)
}

// Close releases the database.
func (d *DB) Close() error {
	return translateError(d.db.Close())
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err != nil {
		return nil, translateError(err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, translateError(err)
	}
	return value, nil
}

func (t *badgerTxn) Set(key, value []byte) error {
	return translateError(t.txn.Set(key, value))
}

func (t *badgerTxn) Delete(key []byte) error {
	return translateError(t.txn.Delete(key))
}

func (t *badgerTxn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return translateError(err)
		}
		if err := fn(item.KeyCopy(nil), value); err != nil {
			return err
		}
	}
	return nil
}
