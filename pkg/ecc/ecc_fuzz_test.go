//go:build fuzz
// +build fuzz

package ecc

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzDecode_RoundTrip tests encode/decode round-trip with random payloads
// and shard geometries.
func FuzzDecode_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add([]byte(""), uint8(4), uint8(2))
	f.Add([]byte("payload"), uint8(1), uint8(1))
	f.Add([]byte{0x00, 0xFF, 0x7F}, uint8(10), uint8(3))

	f.Fuzz(func(t *testing.T, payload []byte, dataShards, parityShards uint8) {
		// Skip extremely large inputs to avoid timeout
		if len(payload) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		blob, err := Encode(payload, int(dataShards), int(parityShards))
		if err != nil {
			// Invalid geometry is rejected up front, never on decode.
			if dataShards >= 1 && parityShards >= 1 && int(dataShards)+int(parityShards) <= MaxShards {
				t.Fatalf("Encode rejected valid geometry %d/%d: %v", dataShards, parityShards, err)
			}
			return
		}

		decoded, err := Decode(blob)
		if err != nil {
			t.Fatalf("Decode failed for %d-byte payload, %d/%d shards: %v", len(payload), dataShards, parityShards, err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("Payload mismatch: got %d bytes, want %d bytes", len(decoded), len(payload))
		}
	})
}

// FuzzDecode_SingleCorruption tests that one corrupted byte anywhere in the
// shard body is either repaired or reported, never returned silently.
func FuzzDecode_SingleCorruption(f *testing.F) {
	// Add seed corpus
	f.Add([]byte("important data"), uint(0))
	f.Add([]byte("important data"), uint(20))
	f.Add(bytes.Repeat([]byte("x"), 100), uint(50))

	f.Fuzz(func(t *testing.T, payload []byte, corruptPos uint) {
		if len(payload) == 0 || len(payload) > 10000 {
			t.Skip("Input out of range for fuzz test")
		}

		blob, err := Encode(payload, 4, 2)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		total := 4 + 2
		bodyStart := headerFixedSize + 4*total
		pos := bodyStart + int(corruptPos)%(len(blob)-bodyStart)
		blob[pos] ^= 0xFF

		decoded, err := Decode(blob)
		if err != nil {
			t.Fatalf("One corrupt shard must be within the parity budget: %v", err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("Repaired payload mismatch at corruption offset %d", pos)
		}
	})
}

// FuzzDecode_MalformedData tests handling of arbitrary blob bytes.
func FuzzDecode_MalformedData(f *testing.F) {
	// Add seed corpus: a valid blob plus truncations and garbage
	valid, _ := Encode([]byte("payload"), 4, 2)
	f.Add(valid)
	f.Add(valid[:headerFixedSize])
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte{0xFF, 0xFF, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, blob []byte) {
		// Skip extremely large inputs
		if len(blob) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// Must never panic, and every failure is one of the declared
		// sentinels so callers can tell malformed from unrecoverable.
		_, err := Decode(blob)
		if err != nil && !errors.Is(err, ErrMalformed) && !errors.Is(err, ErrUnrecoverable) {
			t.Errorf("Undeclared error class for %d-byte blob: %v", len(blob), err)
		}
	})
}
