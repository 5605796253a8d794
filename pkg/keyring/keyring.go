// Package keyring resolves the encryption keys used by the value pipeline.
//
// A Ring is an ordered chain of key sources scoped per value, per table, and
// per database. Resolution searches most-specific-first: a value-scoped key
// beats a table-scoped key beats the database-wide key. This lets an
// operator set one database key while giving higher-sensitivity tables or
// individual values dedicated keys without re-keying anything else.
//
// Stored frames record the identifier of the key that sealed them, so
// rotation never requires re-encrypting old records: the ring retains
// retired keys reachable by identifier until an explicit Purge.
package keyring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/blake2b"

	"github.com/norndb/norn/pkg/crypt"
)

// Errors surfaced by key resolution.
var (
	// ErrKeyNotFound is returned when no source resolves for a required
	// scope, or a frame references a key identifier the ring no longer
	// holds.
	ErrKeyNotFound = errors.New("keyring: key not found")

	// ErrKdfFailure is returned when derivation parameters are invalid.
	ErrKdfFailure = errors.New("keyring: key derivation failed")
)

// Scope identifies where a key lookup originates. DatabaseID is always set;
// TableID and ValueID narrow the scope when present.
type Scope struct {
	DatabaseID string
	TableID    string
	ValueID    string
}

// Key is resolved symmetric key material plus the identifier recorded in
// frames sealed with it.
type Key struct {
	ID       string
	Material [crypt.KeySize]byte
}

// NewRawKey wraps ready-to-use key material. An empty id gets a generated
// ksuid, which is what rotation tooling normally wants.
func NewRawKey(id string, material []byte) (*Key, error) {
	if len(material) != crypt.KeySize {
		return nil, fmt.Errorf("keyring: raw key must be %d bytes, got %d", crypt.KeySize, len(material))
	}
	if id == "" {
		id = ksuid.New().String()
	}
	k := &Key{ID: id}
	copy(k.Material[:], material)
	return k, nil
}

// NewPassphraseKey hashes a passphrase into key material with BLAKE2b. Use
// raw keys where possible; passphrases are for operator convenience.
func NewPassphraseKey(id, passphrase string) (*Key, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("keyring: empty passphrase")
	}
	if id == "" {
		id = ksuid.New().String()
	}
	return &Key{ID: id, Material: blake2b.Sum256([]byte(passphrase))}, nil
}

// DeriveKey derives a key from master material and a context label. The key
// identifier encodes the KDF and label, so the same derivation always maps
// to the same identifier and can be re-derived without persisted state.
func DeriveKey(kdf KDF, master []byte, label string) (*Key, error) {
	material, err := kdf.Derive(master, label)
	if err != nil {
		return nil, err
	}
	return &Key{
		ID:       fmt.Sprintf("kdf:%s:%s", kdf.Name(), label),
		Material: material,
	}, nil
}

// scope chain levels, most specific first
const (
	levelValue = iota
	levelTable
	levelDatabase
	levelCount
)

func scopePaths(scope Scope) [levelCount]string {
	var paths [levelCount]string
	if scope.TableID != "" && scope.ValueID != "" {
		paths[levelValue] = "v\x00" + scope.TableID + "\x00" + scope.ValueID
	}
	if scope.TableID != "" {
		paths[levelTable] = "t\x00" + scope.TableID
	}
	paths[levelDatabase] = "d"
	return paths
}

// Ring is the hierarchical chain of key sources. It is read-mostly after
// construction; rotation takes the write lock, resolution the read lock.
type Ring struct {
	mutex  sync.RWMutex
	active map[string]*Key // scope path -> currently active key
	byID   map[string]*Key // every key ever installed, until purged
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	return &Ring{
		active: make(map[string]*Key),
		byID:   make(map[string]*Key),
	}
}

// SetDatabaseKey installs the database-wide key.
func (r *Ring) SetDatabaseKey(k *Key) {
	r.install(scopePaths(Scope{})[levelDatabase], k)
}

// SetTableKey installs a key for one table.
func (r *Ring) SetTableKey(tableID string, k *Key) {
	r.install("t\x00"+tableID, k)
}

// SetValueKey installs a key for one value of one table.
func (r *Ring) SetValueKey(tableID, valueID string, k *Key) {
	r.install("v\x00"+tableID+"\x00"+valueID, k)
}

func (r *Ring) install(path string, k *Key) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.active[path] = k
	r.byID[k.ID] = k
}

// Resolve returns the most specific active key for scope: value-scoped,
// then table-scoped, then database-scoped. The first present source wins.
func (r *Ring) Resolve(scope Scope) (*Key, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, path := range scopePaths(scope) {
		if path == "" {
			continue
		}
		if k, ok := r.active[path]; ok {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: no source for table %q value %q", ErrKeyNotFound, scope.TableID, scope.ValueID)
}

// Lookup returns a key by identifier, including retired keys. This is the
// decode path: frames record the identifier of the key that sealed them.
func (r *Ring) Lookup(id string) (*Key, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if k, ok := r.byID[id]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("%w: id %q", ErrKeyNotFound, id)
}

// RemoveValueKey retires the value-scoped source so resolution falls back
// to the table or database key. The key itself stays reachable by
// identifier for old frames.
func (r *Ring) RemoveValueKey(tableID, valueID string) {
	r.remove("v\x00" + tableID + "\x00" + valueID)
}

// RemoveTableKey retires the table-scoped source.
func (r *Ring) RemoveTableKey(tableID string) {
	r.remove("t\x00" + tableID)
}

func (r *Ring) remove(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.active, path)
}

// Purge forgets a key entirely. Frames sealed with it become undecodable;
// callers are expected to have re-encrypted or discarded them first.
func (r *Ring) Purge(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.byID, id)
	for path, k := range r.active {
		if k.ID == id {
			delete(r.active, path)
		}
	}
}
