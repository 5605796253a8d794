// Package pebblestore implements store.Backend on Pebble. Pebble has no
// transactions of its own, so Update runs against an indexed batch (which
// reads its own pending writes) committed atomically, and a mutex enforces
// the single-writer discipline the record layer assumes.
package pebblestore

import (
	"errors"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/norndb/norn/pkg/store"
)

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pebble.ErrNotFound):
		return store.ErrKeyNotFound
	default:
		return &store.BackendError{Err: err}
	}
}

// DB is a pebble-backed store.Backend.
type DB struct {
	db      *pebble.DB
	writeMu sync.Mutex
}

// Open opens (creating if needed) a pebble database rooted at dir.
func Open(dir string) (*DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, translateError(err)
	}
	return &DB{db: db}, nil
}

// View runs fn against a consistent snapshot, rejecting mutations.
func (d *DB) View(fn func(store.Txn) error) error {
	snap := d.db.NewSnapshot()
	defer snap.Close()
	return fn(&viewTxn{snap: snap})
}

// Update runs fn against an indexed batch committed atomically on success
// and discarded on error.
func (d *DB) Update(fn func(store.Txn) error) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	batch := d.db.NewIndexedBatch()
	if err := fn(&batchTxn{batch: batch}); err != nil {
		_ = batch.Close()
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return translateError(err)
	}
	return nil
}

// Close releases the database.
func (d *DB) Close() error {
	return translateError(d.db.Close())
}

// pebbleReader covers the read surface shared by snapshots and batches.
type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func readerGet(r pebbleReader, key []byte) ([]byte, error) {
	value, closer, err := r.Get(key)
	if err != nil {
		return nil, translateError(err)
	}
	out := append([]byte{}, value...)
	if err := closer.Close(); err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func readerScan(r pebbleReader, prefix []byte, fn func(key, value []byte) error) error {
	iter, err := r.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: store.PrefixEnd(prefix),
	})
	if err != nil {
		return translateError(err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte{}, iter.Key()...)
		value := append([]byte{}, iter.Value()...)
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return translateError(iter.Error())
}

type viewTxn struct {
	snap *pebble.Snapshot
}

func (t *viewTxn) Get(key []byte) ([]byte, error) { return readerGet(t.snap, key) }

func (t *viewTxn) Set(key, value []byte) error { return store.ErrReadOnlyTxn }

func (t *viewTxn) Delete(key []byte) error { return store.ErrReadOnlyTxn }

func (t *viewTxn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	return readerScan(t.snap, prefix, fn)
}

type batchTxn struct {
	batch *pebble.Batch
}

func (t *batchTxn) Get(key []byte) ([]byte, error) { return readerGet(t.batch, key) }

func (t *batchTxn) Set(key, value []byte) error {
	return translateError(t.batch.Set(key, value, nil))
}

func (t *batchTxn) Delete(key []byte) error {
	return translateError(t.batch.Delete(key, nil))
}

func (t *batchTxn) Scan(prefix []byte, fn func(key, value []byte) error) error {
	return readerScan(t.batch, prefix, fn)
}
