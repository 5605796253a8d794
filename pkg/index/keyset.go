package index

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// KeySet is the set of primary keys sharing one index entry. Keys are stored
// as strings so the set works as a map; callers treat them as opaque bytes.
type KeySet map[string]struct{}

// NewKeySet builds a set from the given primary keys.
func NewKeySet(keys ...[]byte) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[string(k)] = struct{}{}
	}
	return set
}

// Add inserts a primary key into the set.
func (s KeySet) Add(key []byte) {
	s[string(key)] = struct{}{}
}

// Remove deletes a primary key from the set.
func (s KeySet) Remove(key []byte) {
	delete(s, string(key))
}

// Contains reports whether the set holds the primary key.
func (s KeySet) Contains(key []byte) bool {
	_, ok := s[string(key)]
	return ok
}

// Keys returns the members in sorted order.
func (s KeySet) Keys() [][]byte {
	sorted := s.sortedKeys()
	out := make([][]byte, len(sorted))
	for i, k := range sorted {
		out[i] = []byte(k)
	}
	return out
}

func (s KeySet) sortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of the set.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Intersect returns the keys present in both sets.
func (s KeySet) Intersect(other KeySet) KeySet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(KeySet)
	for k := range small {
		if _, ok := large[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Union returns the keys present in either set.
func (s KeySet) Union(other KeySet) KeySet {
	out := make(KeySet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Difference returns the keys in s that are not in other.
func (s KeySet) Difference(other KeySet) KeySet {
	out := make(KeySet)
	for k := range s {
		if _, ok := other[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Encode serializes the set as a uvarint count followed by length-prefixed
// members in sorted order, so equal sets always encode to equal bytes.
func (s KeySet) Encode() []byte {
	sorted := s.sortedKeys()

	size := binary.MaxVarintLen64
	for _, k := range sorted {
		size += binary.MaxVarintLen64 + len(k)
	}
	buf := make([]byte, 0, size)

	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(len(sorted)))
	buf = append(buf, scratch[:n]...)
	for _, k := range sorted {
		n = binary.PutUvarint(scratch[:], uint64(len(k)))
		buf = append(buf, scratch[:n]...)
		buf = append(buf, k...)
	}
	return buf
}

// DecodeKeySet parses a set encoded by Encode.
func DecodeKeySet(data []byte) (KeySet, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, fmt.Errorf("key set: truncated member count")
	}
	data = data[n:]

	// Each member costs at least one length byte, so a count beyond the
	// remaining bytes cannot be satisfied. Checking up front also keeps a
	// forged count from sizing the map allocation.
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("key set: member count %d exceeds %d remaining bytes", count, len(data))
	}

	set := make(KeySet, count)
	for i := uint64(0); i < count; i++ {
		length, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, fmt.Errorf("key set: truncated member length at entry %d", i)
		}
		data = data[n:]
		if uint64(len(data)) < length {
			return nil, fmt.Errorf("key set: truncated member at entry %d", i)
		}
		set[string(data[:length])] = struct{}{}
		data = data[length:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("key set: %d trailing bytes", len(data))
	}
	return set, nil
}
