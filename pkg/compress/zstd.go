package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor compresses with zstandard. It is the only built-in
// compressor with shared-dictionary support. Encoders and decoders are
// cached per dictionary since constructing them is expensive.
type ZstdCompressor struct {
	mutex    sync.Mutex
	encoders map[uint32]*zstd.Encoder
	decoders map[uint32]*zstd.Decoder
}

// NewZstd creates a zstd compressor with empty codec caches.
func NewZstd() *ZstdCompressor {
	return &ZstdCompressor{
		encoders: make(map[uint32]*zstd.Encoder),
		decoders: make(map[uint32]*zstd.Decoder),
	}
}

// ID returns the compressor's wire identifier.
func (c *ZstdCompressor) ID() uint8 { return IDZstd }

// Name returns "zstd".
func (c *ZstdCompressor) Name() string { return "zstd" }

// Compress returns the zstd-compressed form of src, using the shared
// dictionary when one is given.
func (c *ZstdCompressor) Compress(src []byte, dict *Dictionary) ([]byte, error) {
	enc, err := c.encoder(dict)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, nil), nil
}

// Decompress reverses Compress. The same dictionary used at compression
// time must be supplied.
func (c *ZstdCompressor) Decompress(src []byte, dict *Dictionary) ([]byte, error) {
	dec, err := c.decoder(dict)
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

func (c *ZstdCompressor) encoder(dict *Dictionary) (*zstd.Encoder, error) {
	var id uint32
	if dict != nil {
		id = dict.ID
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if enc, ok := c.encoders[id]; ok {
		return enc, nil
	}

	opts := []zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedDefault)}
	if dict != nil {
		// Dictionary.Data is raw shared content, not a serialized zstd
		// dictionary, so register it by id in raw form.
		opts = append(opts, zstd.WithEncoderDictRaw(dict.ID, dict.Data))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder (dict %d): %w", id, err)
	}
	c.encoders[id] = enc
	return enc, nil
}

func (c *ZstdCompressor) decoder(dict *Dictionary) (*zstd.Decoder, error) {
	var id uint32
	if dict != nil {
		id = dict.ID
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if dec, ok := c.decoders[id]; ok {
		return dec, nil
	}

	var opts []zstd.DOption
	if dict != nil {
		opts = append(opts, zstd.WithDecoderDictRaw(dict.ID, dict.Data))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder (dict %d): %w", id, err)
	}
	c.decoders[id] = dec
	return dec, nil
}
