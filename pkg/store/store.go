// Package store abstracts the embedded transactional key-value store the
// record layer sits on. The store is an external collaborator: it owns
// paging, durability, and isolation (ACID, single-writer/multi-reader);
// this package only defines the narrow surface the record layer consumes
// and translates backend errors into portable ones.
package store

import (
	"errors"
	"fmt"
)

// Portable store errors. Backends translate their own error values into
// these so callers never depend on a concrete engine.
var (
	// ErrKeyNotFound is returned by Txn.Get for absent keys.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrReadOnlyTxn is returned when a mutation is attempted inside View.
	ErrReadOnlyTxn = errors.New("store: mutation in read-only transaction")

	// ErrConflict is returned when a transaction conflicts with a
	// concurrently committed one and should be retried.
	ErrConflict = errors.New("store: transaction conflict")
)

// BackendError wraps an engine-specific failure that has no portable
// equivalent.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("store backend: %v", e.Err) }

// Unwrap exposes the underlying engine error.
func (e *BackendError) Unwrap() error { return e.Err }

// Txn is one transaction's view of the store. Implementations are not safe
// for concurrent use; a Txn never outlives the View/Update call that
// produced it.
type Txn interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores value under key.
	Set(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Scan visits every key with the given prefix in ascending key order.
	// Returning an error from fn stops the scan and propagates the error.
	Scan(prefix []byte, fn func(key, value []byte) error) error
}

// Backend is an embedded store engine. View runs fn in a read-only
// transaction, Update in a read-write one; fn returning an error aborts
// the transaction, discarding every mutation it made.
type Backend interface {
	View(fn func(Txn) error) error
	Update(fn func(Txn) error) error
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil when no such bound exists. Backends use it to build
// half-open scan ranges.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
