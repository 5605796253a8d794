//go:build fuzz
// +build fuzz

package pipeline

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzDescriptor_RoundTrip tests that any descriptor the encoder can emit
// parses back to the same layers and leaves the payload untouched.
func FuzzDescriptor_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add(uint8(1), false, uint8(0), uint32(0), false, uint8(0), "", false, uint8(0), uint8(0), []byte("payload"))
	f.Add(uint8(1), true, uint8(2), uint32(7), true, uint8(1), "default", true, uint8(4), uint8(2), []byte{0x00})
	f.Add(uint8(3), true, uint8(1), uint32(42), false, uint8(0), "", true, uint8(10), uint8(3), []byte(""))

	f.Fuzz(func(t *testing.T, codecID uint8, compressed bool, compressorID uint8, dictionaryID uint32,
		encrypted bool, cipherID uint8, keyID string, corrected bool, dataShards, parityShards uint8,
		payload []byte) {
		// Skip extremely large inputs to avoid timeout
		if len(keyID) > 10000 || len(payload) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		d := &Descriptor{
			Version:      frameVersion,
			CodecID:      codecID,
			Compressed:   compressed,
			CompressorID: compressorID,
			DictionaryID: dictionaryID,
			Encrypted:    encrypted,
			CipherID:     cipherID,
			KeyID:        keyID,
			Corrected:    corrected,
			DataShards:   dataShards,
			ParityShards: parityShards,
		}
		if !compressed {
			d.CompressorID, d.DictionaryID = 0, 0
		}
		if !encrypted {
			d.CipherID, d.KeyID = 0, ""
		}
		if !corrected {
			d.DataShards, d.ParityShards = 0, 0
		}

		frame := append(d.marshal(nil), payload...)
		parsed, rest, err := parseDescriptor(frame)
		if err != nil {
			t.Fatalf("Parse failed for marshaled descriptor: %v", err)
		}
		if *parsed != *d {
			t.Errorf("Descriptor mismatch: got %+v, want %+v", parsed, d)
		}
		if !bytes.Equal(rest, payload) {
			t.Errorf("Payload mismatch: got %d bytes, want %d bytes", len(rest), len(payload))
		}
	})
}

// FuzzParseDescriptor_MalformedData tests handling of arbitrary frame bytes.
func FuzzParseDescriptor_MalformedData(f *testing.F) {
	// Add seed corpus: a valid frame plus truncations and garbage
	valid := (&Descriptor{Version: frameVersion, CodecID: 1, Encrypted: true, CipherID: 1, KeyID: "k"}).marshal(nil)
	f.Add(valid)
	f.Add(valid[:3])
	f.Add([]byte{})
	f.Add([]byte{0x46, 0x4E, 0x01, 0xFF, 0x00})
	f.Add([]byte{0x46, 0x4E, 0x63, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, frame []byte) {
		// Skip extremely large inputs
		if len(frame) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		// Must never panic; every rejection is ErrCorruptFrame so Decode
		// callers see one error class for unreadable frames.
		_, _, err := parseDescriptor(frame)
		if err != nil && !errors.Is(err, ErrCorruptFrame) {
			t.Errorf("Undeclared error class for %d-byte frame: %v", len(frame), err)
		}
	})
}
