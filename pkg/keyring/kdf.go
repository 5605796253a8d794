package keyring

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"github.com/norndb/norn/pkg/crypt"
)

// KDF deterministically derives a symmetric key from master material and a
// context label. The same (master, label) pair always yields the same key,
// so derived keys never need to be persisted.
type KDF interface {
	// Name returns a human-readable KDF name for errors and config files.
	Name() string

	// Derive produces a key from master material and a context label.
	Derive(master []byte, label string) ([crypt.KeySize]byte, error)
}

// HKDFSHA256 derives keys with HKDF over SHA-256 (RFC 5869), using the
// label as the info parameter.
type HKDFSHA256 struct{}

// Name returns "hkdf-sha256".
func (k *HKDFSHA256) Name() string { return "hkdf-sha256" }

// Derive produces a key from master material and a context label.
func (k *HKDFSHA256) Derive(master []byte, label string) ([crypt.KeySize]byte, error) {
	var key [crypt.KeySize]byte
	if len(master) == 0 {
		return key, fmt.Errorf("%w: empty master material", ErrKdfFailure)
	}

	reader := hkdf.New(sha256.New, master, nil, []byte(label))
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return key, fmt.Errorf("%w: %v", ErrKdfFailure, err)
	}
	return key, nil
}

// Blake2b derives keys with keyed BLAKE2b-256, using the master material as
// the MAC key and the label as the message.
type Blake2b struct{}

// Name returns "blake2b".
func (k *Blake2b) Name() string { return "blake2b" }

// Derive produces a key from master material and a context label.
func (k *Blake2b) Derive(master []byte, label string) ([crypt.KeySize]byte, error) {
	var key [crypt.KeySize]byte
	if len(master) == 0 {
		return key, fmt.Errorf("%w: empty master material", ErrKdfFailure)
	}
	if len(master) > 64 {
		// BLAKE2b caps MAC keys at 64 bytes; fold longer material first.
		sum := blake2b.Sum512(master)
		master = sum[:]
	}

	h, err := blake2b.New256(master)
	if err != nil {
		return key, fmt.Errorf("%w: %v", ErrKdfFailure, err)
	}
	h.Write([]byte(label))
	copy(key[:], h.Sum(nil))
	return key, nil
}

// LookupKDF returns the KDF registered under a human-readable name.
func LookupKDF(name string) (KDF, error) {
	switch name {
	case "hkdf-sha256":
		return &HKDFSHA256{}, nil
	case "blake2b":
		return &Blake2b{}, nil
	default:
		return nil, fmt.Errorf("no kdf registered for name %q", name)
	}
}
