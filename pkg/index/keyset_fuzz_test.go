//go:build fuzz
// +build fuzz

package index

import (
	"bytes"
	"testing"
)

// FuzzDecodeKeySet_RoundTrip tests that any set survives encode/decode and
// that the encoding is canonical.
func FuzzDecodeKeySet_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add([]byte("a"), []byte("b"), []byte("c"))
	f.Add([]byte(""), []byte("key"), []byte("key"))
	f.Add([]byte{0x00}, []byte{0xFF, 0xFE}, []byte("user:123"))

	f.Fuzz(func(t *testing.T, k1, k2, k3 []byte) {
		// Skip extremely large inputs to avoid timeout
		if len(k1)+len(k2)+len(k3) > 10000 {
			t.Skip("Input too large for fuzz test")
		}

		set := NewKeySet(k1, k2, k3)
		encoded := set.Encode()

		decoded, err := DecodeKeySet(encoded)
		if err != nil {
			t.Fatalf("Decode failed for set of %d members: %v", len(set), err)
		}
		if len(decoded) != len(set) {
			t.Errorf("Member count mismatch: got %d, want %d", len(decoded), len(set))
		}
		for _, k := range set.Keys() {
			if !decoded.Contains(k) {
				t.Errorf("Member %q lost in round trip", k)
			}
		}

		// Equal sets must encode to equal bytes.
		if !bytes.Equal(encoded, decoded.Encode()) {
			t.Errorf("Re-encoding diverged: %x vs %x", encoded, decoded.Encode())
		}
	})
}

// FuzzDecodeKeySet_MalformedData tests handling of arbitrary input bytes.
func FuzzDecodeKeySet_MalformedData(f *testing.F) {
	// Add seed corpus: one valid encoding plus malformed prefixes
	valid := NewKeySet([]byte("a"), []byte("bb")).Encode()
	f.Add(valid)
	f.Add(valid[:1])
	f.Add([]byte{})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	f.Add([]byte{0x02, 0x05, 'h', 'i'})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Skip extremely large inputs
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// Must never panic; anything accepted must itself round-trip.
		set, err := DecodeKeySet(data)
		if err != nil {
			return
		}
		again, err := DecodeKeySet(set.Encode())
		if err != nil {
			t.Fatalf("Re-encoding of accepted input failed to decode: %v", err)
		}
		if !bytes.Equal(set.Encode(), again.Encode()) {
			t.Errorf("Accepted input does not round-trip: %x vs %x", set.Encode(), again.Encode())
		}
	})
}
