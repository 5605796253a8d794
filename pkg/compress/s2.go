package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Compressor compresses with S2, the snappy-compatible format. It trades
// ratio for speed and is a good default for hot tables.
type S2Compressor struct{}

// ID returns the compressor's wire identifier.
func (c *S2Compressor) ID() uint8 { return IDS2 }

// Name returns "s2".
func (c *S2Compressor) Name() string { return "s2" }

// Compress returns the S2-compressed form of src.
func (c *S2Compressor) Compress(src []byte, dict *Dictionary) ([]byte, error) {
	if dict != nil {
		return nil, fmt.Errorf("s2 does not support shared dictionaries")
	}
	return s2.Encode(nil, src), nil
}

// Decompress reverses Compress.
func (c *S2Compressor) Decompress(src []byte, dict *Dictionary) ([]byte, error) {
	if dict != nil {
		return nil, fmt.Errorf("s2 does not support shared dictionaries")
	}
	out, err := s2.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	return out, nil
}
