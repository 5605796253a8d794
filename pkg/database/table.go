package database

import (
	"errors"
	"fmt"

	"github.com/norndb/norn/pkg/index"
	"github.com/norndb/norn/pkg/pipeline"
	"github.com/norndb/norn/pkg/query"
	"github.com/norndb/norn/pkg/store"
)

// Table is the safe handle over one table's records. Every mutation updates
// the table's key sets in the same transaction, so the indexes and the
// records commit or roll back together.
type Table struct {
	db      *Database
	name    string
	factory func() interface{}
	options pipeline.Options
	indexes *index.Engine
	queries *query.Engine
	prefix  []byte
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Options returns the table's default layer configuration.
func (t *Table) Options() pipeline.Options {
	return t.options
}

func (t *Table) recordKey(primaryKey []byte) []byte {
	out := make([]byte, 0, len(t.prefix)+len(primaryKey))
	out = append(out, t.prefix...)
	return append(out, primaryKey...)
}

// Put writes a record under the table's default options, inserting or
// replacing it and updating every index.
func (t *Table) Put(primaryKey []byte, record interface{}) error {
	return t.PutWith(primaryKey, record, t.options)
}

// PutWith writes a record with explicit per-value options. The frame records
// the layers actually used, so reads never depend on the table defaults the
// value was written under.
func (t *Table) PutWith(primaryKey []byte, record interface{}, opts pipeline.Options) error {
	if opts.Scope.TableID == "" {
		opts.Scope.TableID = t.name
	}
	frame, err := t.db.pipe.Encode(record, opts)
	if err != nil {
		return fmt.Errorf("table %s: encode %q: %w", t.name, primaryKey, err)
	}

	return t.db.backend.Update(func(txn store.Txn) error {
		old, exists, err := t.loadRecord(txn, primaryKey)
		if err != nil {
			return err
		}
		if err := txn.Set(t.recordKey(primaryKey), frame); err != nil {
			return err
		}
		if exists {
			return t.indexes.OnUpdate(txn, primaryKey, old, record)
		}
		return t.indexes.OnInsert(txn, primaryKey, record)
	})
}

// Get reads and decodes one record. A missing primary key yields
// store.ErrKeyNotFound.
func (t *Table) Get(primaryKey []byte) (interface{}, error) {
	var record interface{}
	err := t.db.backend.View(func(txn store.Txn) error {
		var exists bool
		var err error
		record, exists, err = t.loadRecord(txn, primaryKey)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("table %s: record %q: %w", t.name, primaryKey, store.ErrKeyNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a record and its index memberships. Deleting a missing
// primary key yields store.ErrKeyNotFound.
func (t *Table) Delete(primaryKey []byte) error {
	return t.db.backend.Update(func(txn store.Txn) error {
		old, exists, err := t.loadRecord(txn, primaryKey)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("table %s: record %q: %w", t.name, primaryKey, store.ErrKeyNotFound)
		}
		if err := txn.Delete(t.recordKey(primaryKey)); err != nil {
			return err
		}
		return t.indexes.OnDelete(txn, primaryKey, old)
	})
}

// Query evaluates an index expression to the matching primary keys.
func (t *Table) Query(expr query.Expr) (index.KeySet, error) {
	var set index.KeySet
	err := t.db.backend.View(func(txn store.Txn) error {
		var err error
		set, err = t.queries.Evaluate(txn, expr)
		return err
	})
	return set, err
}

// QueryRecords evaluates an expression, applies the predicates to the
// decoded candidates, and returns the surviving records by primary key.
func (t *Table) QueryRecords(expr query.Expr, predicates ...query.Predicate) (map[string]interface{}, error) {
	records := make(map[string]interface{})
	err := t.db.backend.View(func(txn store.Txn) error {
		load := func(pk []byte) (interface{}, error) {
			record, exists, err := t.loadRecord(txn, pk)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("table %s: record %q: %w", t.name, pk, store.ErrKeyNotFound)
			}
			records[string(pk)] = record
			return record, nil
		}

		matched, err := t.queries.EvaluateFiltered(txn, expr, load, predicates...)
		if err != nil {
			return err
		}
		// Drop candidates the predicates rejected.
		for pk := range records {
			if !matched.Contains([]byte(pk)) {
				delete(records, pk)
			}
		}
		// With no predicates nothing was loaded yet; fetch the matches.
		for _, pk := range matched.Keys() {
			if _, ok := records[string(pk)]; ok {
				continue
			}
			if _, err := load(pk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// VerifyIndexes recomputes every index from the table's records and reports
// index.ErrIndexInconsistency on any divergence.
func (t *Table) VerifyIndexes() error {
	return t.db.backend.View(func(txn store.Txn) error {
		records := make(map[string]interface{})
		err := txn.Scan(t.prefix, func(key, frame []byte) error {
			record := t.factory()
			if err := t.db.pipe.Decode(frame, record); err != nil {
				return fmt.Errorf("table %s: decode %q: %w", t.name, key[len(t.prefix):], err)
			}
			records[string(key[len(t.prefix):])] = record
			return nil
		})
		if err != nil {
			return err
		}
		return t.indexes.Verify(txn, records)
	})
}

// loadRecord fetches and decodes one record inside an open transaction.
func (t *Table) loadRecord(txn store.Txn, primaryKey []byte) (interface{}, bool, error) {
	frame, err := txn.Get(t.recordKey(primaryKey))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	record := t.factory()
	if err := t.db.pipe.Decode(frame, record); err != nil {
		return nil, false, fmt.Errorf("table %s: decode %q: %w", t.name, primaryKey, err)
	}
	return record, true, nil
}
