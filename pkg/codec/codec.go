package codec

import (
	"fmt"
	"sort"
	"sync"
)

// Well-known codec identifiers. These are written into stored frames and
// must never be reassigned to a different format.
const (
	IDJSON        uint8 = 1
	IDMessagePack uint8 = 2
	IDCBOR        uint8 = 3
	IDBytes       uint8 = 4
)

// Codec converts a typed value to and from bytes.
//
// Implementations must be stateless and safe for concurrent use, and must
// round-trip every representable value exactly.
type Codec interface {
	// ID returns the codec's wire identifier.
	ID() uint8

	// Name returns a human-readable codec name for errors and config files.
	Name() string

	// Encode serializes v into a new byte slice.
	Encode(v interface{}) ([]byte, error)

	// Decode deserializes data into the value pointed to by into.
	Decode(data []byte, into interface{}) error

	// Borrowing reports whether Decode can yield views into the input
	// buffer instead of copying. Only borrowing codecs are eligible for
	// the pipeline's zero-copy decode path.
	Borrowing() bool
}

// Registry maps codec identifiers to implementations.
type Registry struct {
	mutex  sync.RWMutex
	codecs map[uint8]Codec
	byName map[string]Codec
}

// NewRegistry creates a registry pre-populated with the built-in codecs.
func NewRegistry() *Registry {
	r := &Registry{
		codecs: make(map[uint8]Codec),
		byName: make(map[string]Codec),
	}
	for _, c := range []Codec{&JSONCodec{}, &MessagePackCodec{}, &CBORCodec{}, &BytesCodec{}} {
		r.codecs[c.ID()] = c
		r.byName[c.Name()] = c
	}
	return r
}

// Register adds a codec to the registry. Registering an identifier twice is
// a configuration error.
func (r *Registry) Register(c Codec) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.codecs[c.ID()]; ok {
		return fmt.Errorf("codec id %d already registered to %q", c.ID(), existing.Name())
	}
	r.codecs[c.ID()] = c
	r.byName[c.Name()] = c
	return nil
}

// Lookup returns the codec registered under id.
func (r *Registry) Lookup(id uint8) (Codec, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.codecs[id]
	if !ok {
		return nil, fmt.Errorf("no codec registered for id %d", id)
	}
	return c, nil
}

// LookupName returns the codec registered under a human-readable name,
// as used in configuration files.
func (r *Registry) LookupName(name string) (Codec, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("no codec registered for name %q", name)
	}
	return c, nil
}

// Names returns the registered codec names, sorted.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
