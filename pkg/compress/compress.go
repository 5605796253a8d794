// Package compress provides the optional compression layer of the value
// pipeline. Compressors are stateless byte transforms selected per table or
// per value by configuration; zstd additionally supports shared dictionaries
// for small, repetitive values.
package compress

import (
	"fmt"
	"sync"
)

// Well-known compressor identifiers. These are written into stored frames
// and must never be reassigned.
const (
	IDZstd uint8 = 1
	IDS2   uint8 = 2
	IDGzip uint8 = 3
)

// Dictionary is a shared compression dictionary. Dictionaries are referenced
// from stored frames by identifier, so a dictionary must stay registered for
// as long as any value compressed with it exists.
type Dictionary struct {
	ID   uint32
	Data []byte
}

// Compressor is a stateless compress/decompress byte-transform pair.
//
// Implementations must be safe for concurrent use. A compressor that does
// not support dictionaries must reject a non-nil dict rather than silently
// ignore it, since the frame would otherwise record a dictionary that never
// influenced the bytes.
type Compressor interface {
	// ID returns the compressor's wire identifier.
	ID() uint8

	// Name returns a human-readable name for errors and config files.
	Name() string

	// Compress returns the compressed form of src.
	Compress(src []byte, dict *Dictionary) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(src []byte, dict *Dictionary) ([]byte, error)
}

// Registry maps compressor identifiers to implementations and holds the
// shared dictionaries they may reference.
type Registry struct {
	mutex       sync.RWMutex
	compressors map[uint8]Compressor
	byName      map[string]Compressor
	dicts       map[uint32]*Dictionary
}

// NewRegistry creates a registry pre-populated with the built-in
// compressors and no dictionaries.
func NewRegistry() *Registry {
	r := &Registry{
		compressors: make(map[uint8]Compressor),
		byName:      make(map[string]Compressor),
		dicts:       make(map[uint32]*Dictionary),
	}
	for _, c := range []Compressor{NewZstd(), &S2Compressor{}, &GzipCompressor{}} {
		r.compressors[c.ID()] = c
		r.byName[c.Name()] = c
	}
	return r
}

// Lookup returns the compressor registered under id.
func (r *Registry) Lookup(id uint8) (Compressor, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.compressors[id]
	if !ok {
		return nil, fmt.Errorf("no compressor registered for id %d", id)
	}
	return c, nil
}

// LookupName returns the compressor registered under a human-readable name.
func (r *Registry) LookupName(name string) (Compressor, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("no compressor registered for name %q", name)
	}
	return c, nil
}

// RegisterDictionary makes a shared dictionary available by identifier.
// Identifier zero is reserved to mean "no dictionary".
func (r *Registry) RegisterDictionary(d *Dictionary) error {
	if d.ID == 0 {
		return fmt.Errorf("dictionary id 0 is reserved")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.dicts[d.ID]; ok {
		return fmt.Errorf("dictionary id %d already registered", d.ID)
	}
	r.dicts[d.ID] = d
	return nil
}

// Dictionary returns the dictionary registered under id.
func (r *Registry) Dictionary(id uint32) (*Dictionary, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	d, ok := r.dicts[id]
	if !ok {
		return nil, fmt.Errorf("no dictionary registered for id %d", id)
	}
	return d, nil
}
