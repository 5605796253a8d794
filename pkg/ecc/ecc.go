// Package ecc provides the error-correction layer of the value pipeline.
//
// Encode splits a payload into N data shards plus M Reed-Solomon parity
// shards and prefixes a header carrying the shard layout, an xxhash64
// checksum of the whole payload, and a CRC32 per shard. Decode verifies the
// payload checksum first and returns immediately when it matches, so the
// uncorrupted common case pays only one hash pass. On mismatch the
// per-shard CRCs locate the corrupt shards, Reed-Solomon reconstruction
// rebuilds them, and the payload checksum is re-verified. Recovery is
// silent to the caller; a Prometheus counter records it.
//
// # Blob layout
//
//	[dataShards(1)][parityShards(1)][dataLen(4)][payloadSum(8)]
//	[shardCRC32 x (dataShards+parityShards)][shards...]
//
// All integers are little-endian. Every shard has the same size, derived
// from the blob length, so no explicit shard size is stored.
package ecc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/reedsolomon"
)

// Errors surfaced by ECC decode.
var (
	// ErrUnrecoverable is returned when more shards are corrupt than the
	// parity budget can rebuild, or when reconstruction produces bytes
	// that still fail the payload checksum. It signals data loss for this
	// value only.
	ErrUnrecoverable = errors.New("ecc: payload unrecoverable")

	// ErrMalformed is returned when the blob's header or length is
	// structurally inconsistent, as opposed to shard-level corruption.
	ErrMalformed = errors.New("ecc: malformed shard blob")
)

const (
	// MaxShards caps dataShards+parityShards; the GF(2^8) Reed-Solomon
	// field supports at most 256 shards.
	MaxShards = 256

	headerFixedSize = 2 + 4 + 8
)

// Encode protects data with a Reed-Solomon shard set of dataShards data
// shards and parityShards parity shards.
func Encode(data []byte, dataShards, parityShards int) ([]byte, error) {
	if dataShards < 1 || parityShards < 1 {
		return nil, fmt.Errorf("ecc: shard counts must be positive, got %d data / %d parity", dataShards, parityShards)
	}
	if dataShards+parityShards > MaxShards {
		return nil, fmt.Errorf("ecc: %d total shards exceeds the maximum of %d", dataShards+parityShards, MaxShards)
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("ecc: %w", err)
	}

	payloadSum := xxhash.Sum64(data)

	// Split pads the final shard with zeros; the recorded length restores
	// the exact payload on decode. Split rejects empty input, so a zero
	// length payload is sharded as a single zero byte.
	splitInput := data
	if len(splitInput) == 0 {
		splitInput = []byte{0}
	}
	shards, err := enc.Split(splitInput)
	if err != nil {
		return nil, fmt.Errorf("ecc: split: %w", err)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("ecc: parity: %w", err)
	}

	total := dataShards + parityShards
	shardSize := len(shards[0])

	blob := make([]byte, 0, headerFixedSize+4*total+total*shardSize)
	blob = append(blob, byte(dataShards), byte(parityShards))
	blob = binary.LittleEndian.AppendUint32(blob, uint32(len(data)))
	blob = binary.LittleEndian.AppendUint64(blob, payloadSum)
	for _, shard := range shards {
		blob = binary.LittleEndian.AppendUint32(blob, crc32.ChecksumIEEE(shard))
	}
	for _, shard := range shards {
		blob = append(blob, shard...)
	}
	return blob, nil
}

// Decode verifies and, if needed, repairs a blob produced by Encode,
// returning the original payload.
func Decode(blob []byte) ([]byte, error) {
	dataShards, parityShards, dataLen, payloadSum, crcs, body, err := parseHeader(blob)
	if err != nil {
		return nil, err
	}

	total := dataShards + parityShards
	shardSize := len(body) / total

	// Checksum-first: reassemble the data shards and compare. A match
	// means no correction work at all.
	data := body[:dataShards*shardSize][:dataLen]
	if xxhash.Sum64(data) == payloadSum {
		if dataLen == 0 {
			return nil, nil
		}
		return data, nil
	}

	// Corruption confirmed. Per-shard CRCs tell Reed-Solomon which shards
	// to treat as erasures.
	shards := make([][]byte, total)
	missing := 0
	for i := 0; i < total; i++ {
		shard := body[i*shardSize : (i+1)*shardSize]
		if crc32.ChecksumIEEE(shard) == crcs[i] {
			shards[i] = shard
		} else {
			missing++
		}
	}
	if missing > parityShards {
		decodeUnrecoverable.Inc()
		return nil, fmt.Errorf("%w: %d corrupt shards exceed parity budget of %d", ErrUnrecoverable, missing, parityShards)
	}

	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("ecc: %w", err)
	}
	if err := enc.Reconstruct(shards); err != nil {
		decodeUnrecoverable.Inc()
		return nil, fmt.Errorf("%w: reconstruction failed: %v", ErrUnrecoverable, err)
	}

	repaired := make([]byte, 0, dataShards*shardSize)
	for i := 0; i < dataShards; i++ {
		repaired = append(repaired, shards[i]...)
	}
	repaired = repaired[:dataLen]

	if xxhash.Sum64(repaired) != payloadSum {
		decodeUnrecoverable.Inc()
		return nil, fmt.Errorf("%w: reconstructed payload fails checksum", ErrUnrecoverable)
	}

	decodeRecoveries.Inc()
	if dataLen == 0 {
		return nil, nil
	}
	return repaired, nil
}

func parseHeader(blob []byte) (dataShards, parityShards, dataLen int, payloadSum uint64, crcs []uint32, body []byte, err error) {
	if len(blob) < headerFixedSize {
		err = fmt.Errorf("%w: %d bytes is shorter than the fixed header", ErrMalformed, len(blob))
		return
	}

	dataShards = int(blob[0])
	parityShards = int(blob[1])
	if dataShards < 1 || parityShards < 1 {
		err = fmt.Errorf("%w: shard counts %d/%d", ErrMalformed, dataShards, parityShards)
		return
	}
	dataLen = int(binary.LittleEndian.Uint32(blob[2:6]))
	payloadSum = binary.LittleEndian.Uint64(blob[6:14])

	total := dataShards + parityShards
	if total > MaxShards {
		err = fmt.Errorf("%w: %d total shards exceeds the maximum of %d", ErrMalformed, total, MaxShards)
		return
	}
	if len(blob) < headerFixedSize+4*total {
		err = fmt.Errorf("%w: truncated shard checksums", ErrMalformed)
		return
	}
	crcs = make([]uint32, total)
	for i := 0; i < total; i++ {
		crcs[i] = binary.LittleEndian.Uint32(blob[headerFixedSize+4*i:])
	}

	body = blob[headerFixedSize+4*total:]
	if len(body) == 0 || len(body)%total != 0 {
		err = fmt.Errorf("%w: shard body of %d bytes does not divide into %d shards", ErrMalformed, len(body), total)
		return
	}
	if dataLen > (len(body)/total)*dataShards {
		err = fmt.Errorf("%w: recorded payload length %d exceeds data shard capacity", ErrMalformed, dataLen)
		return
	}
	return
}
