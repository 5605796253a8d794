package index

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/norndb/norn/pkg/store"
)

// ErrIndexInconsistency is returned when a stored index entry disagrees with
// the records it is derived from.
var ErrIndexInconsistency = errors.New("index inconsistency detected")

// Index describes one secondary index over a table. Extract returns the
// index keys a decoded record contributes to; a record may contribute zero,
// one, or many keys (multi-valued fields).
type Index struct {
	Name    string
	Extract func(record interface{}) ([][]byte, error)
}

// Engine maintains the key sets for a table's secondary indexes. All methods
// operate inside a caller-supplied transaction so index maintenance commits
// or rolls back together with the record write.
type Engine struct {
	table   string
	indexes []Index
}

// NewEngine creates an engine for the named table.
func NewEngine(table string, indexes []Index) *Engine {
	return &Engine{table: table, indexes: indexes}
}

// Table returns the table this engine maintains indexes for.
func (e *Engine) Table() string {
	return e.table
}

// Indexes returns the index definitions in registration order.
func (e *Engine) Indexes() []Index {
	return e.indexes
}

// storageKey builds the store key for one index entry:
// idx:<table>:<index>:<key>.
func (e *Engine) storageKey(indexName string, key []byte) []byte {
	out := make([]byte, 0, 4+len(e.table)+1+len(indexName)+1+len(key))
	out = append(out, "idx:"...)
	out = append(out, e.table...)
	out = append(out, ':')
	out = append(out, indexName...)
	out = append(out, ':')
	return append(out, key...)
}

// entryPrefix is the scan prefix covering every entry of one index.
func (e *Engine) entryPrefix(indexName string) []byte {
	return e.storageKey(indexName, nil)
}

// OnInsert adds the primary key to every index entry the new record maps to.
func (e *Engine) OnInsert(txn store.Txn, primaryKey []byte, record interface{}) error {
	for _, idx := range e.indexes {
		keys, err := idx.Extract(record)
		if err != nil {
			return fmt.Errorf("index %s/%s: extract: %w", e.table, idx.Name, err)
		}
		for _, key := range keys {
			if err := e.addMember(txn, idx.Name, key, primaryKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnDelete removes the primary key from every index entry the old record
// maps to, pruning entries that become empty.
func (e *Engine) OnDelete(txn store.Txn, primaryKey []byte, record interface{}) error {
	for _, idx := range e.indexes {
		keys, err := idx.Extract(record)
		if err != nil {
			return fmt.Errorf("index %s/%s: extract: %w", e.table, idx.Name, err)
		}
		for _, key := range keys {
			if err := e.removeMember(txn, idx.Name, key, primaryKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnUpdate moves the primary key from the old record's index entries to the
// new record's. Entries shared by both versions are left untouched.
func (e *Engine) OnUpdate(txn store.Txn, primaryKey []byte, oldRecord, newRecord interface{}) error {
	for _, idx := range e.indexes {
		oldKeys, err := idx.Extract(oldRecord)
		if err != nil {
			return fmt.Errorf("index %s/%s: extract old: %w", e.table, idx.Name, err)
		}
		newKeys, err := idx.Extract(newRecord)
		if err != nil {
			return fmt.Errorf("index %s/%s: extract new: %w", e.table, idx.Name, err)
		}

		for _, key := range oldKeys {
			if containsKey(newKeys, key) {
				continue
			}
			if err := e.removeMember(txn, idx.Name, key, primaryKey); err != nil {
				return err
			}
		}
		for _, key := range newKeys {
			if containsKey(oldKeys, key) {
				continue
			}
			if err := e.addMember(txn, idx.Name, key, primaryKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup returns the key set for one index entry. A missing entry yields
// (nil, false, nil) so callers can apply their own missing-key policy.
func (e *Engine) Lookup(txn store.Txn, indexName string, key []byte) (KeySet, bool, error) {
	raw, err := txn.Get(e.storageKey(indexName, key))
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	set, err := DecodeKeySet(raw)
	if err != nil {
		return nil, false, fmt.Errorf("index %s/%s key %q: %w", e.table, indexName, key, err)
	}
	return set, true, nil
}

// Entries walks every stored entry of one index in key order.
func (e *Engine) Entries(txn store.Txn, indexName string, fn func(key []byte, set KeySet) error) error {
	prefix := e.entryPrefix(indexName)
	return txn.Scan(prefix, func(storageKey, value []byte) error {
		set, err := DecodeKeySet(value)
		if err != nil {
			return fmt.Errorf("index %s/%s key %q: %w", e.table, indexName, storageKey[len(prefix):], err)
		}
		return fn(storageKey[len(prefix):], set)
	})
}

// Verify recomputes every index from the given records and compares the
// result against the stored entries. records maps primary key to decoded
// record. Any divergence is reported as ErrIndexInconsistency.
func (e *Engine) Verify(txn store.Txn, records map[string]interface{}) error {
	for _, idx := range e.indexes {
		expected := make(map[string]KeySet)
		for pk, record := range records {
			keys, err := idx.Extract(record)
			if err != nil {
				return fmt.Errorf("index %s/%s: extract: %w", e.table, idx.Name, err)
			}
			for _, key := range keys {
				set, ok := expected[string(key)]
				if !ok {
					set = make(KeySet)
					expected[string(key)] = set
				}
				set[pk] = struct{}{}
			}
		}

		stored := make(map[string]KeySet)
		err := e.Entries(txn, idx.Name, func(key []byte, set KeySet) error {
			stored[string(key)] = set
			return nil
		})
		if err != nil {
			return err
		}

		for key, want := range expected {
			got, ok := stored[key]
			if !ok {
				return fmt.Errorf("%w: index %s/%s missing entry %q", ErrIndexInconsistency, e.table, idx.Name, key)
			}
			if !sameKeySet(want, got) {
				return fmt.Errorf("%w: index %s/%s entry %q diverges from records", ErrIndexInconsistency, e.table, idx.Name, key)
			}
		}
		for key := range stored {
			if _, ok := expected[key]; !ok {
				return fmt.Errorf("%w: index %s/%s has stale entry %q", ErrIndexInconsistency, e.table, idx.Name, key)
			}
		}
	}
	return nil
}

func (e *Engine) addMember(txn store.Txn, indexName string, key, primaryKey []byte) error {
	storageKey := e.storageKey(indexName, key)
	set, _, err := e.Lookup(txn, indexName, key)
	if err != nil {
		return err
	}
	if set == nil {
		set = make(KeySet, 1)
	}
	set.Add(primaryKey)
	return txn.Set(storageKey, set.Encode())
}

func (e *Engine) removeMember(txn store.Txn, indexName string, key, primaryKey []byte) error {
	storageKey := e.storageKey(indexName, key)
	set, ok, err := e.Lookup(txn, indexName, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	set.Remove(primaryKey)
	if len(set) == 0 {
		return txn.Delete(storageKey)
	}
	return txn.Set(storageKey, set.Encode())
}

func containsKey(keys [][]byte, key []byte) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}

func sameKeySet(a, b KeySet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
