package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipCompressor compresses with gzip. Mostly useful when stored blobs are
// exported to tooling that expects the gzip framing.
type GzipCompressor struct{}

// ID returns the compressor's wire identifier.
func (c *GzipCompressor) ID() uint8 { return IDGzip }

// Name returns "gzip".
func (c *GzipCompressor) Name() string { return "gzip" }

// Compress returns the gzip-compressed form of src.
func (c *GzipCompressor) Compress(src []byte, dict *Dictionary) ([]byte, error) {
	if dict != nil {
		return nil, fmt.Errorf("gzip does not support shared dictionaries")
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (c *GzipCompressor) Decompress(src []byte, dict *Dictionary) ([]byte, error) {
	if dict != nil {
		return nil, fmt.Errorf("gzip does not support shared dictionaries")
	}

	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return out, nil
}
