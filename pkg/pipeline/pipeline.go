// Package pipeline orchestrates the per-value transformation layers.
//
// On write a typed value is serialized, then optionally compressed, then
// optionally encrypted, then optionally protected with Reed-Solomon parity,
// and finally framed with a Descriptor recording exactly what was applied.
// Reads run the exact mirror. The ordering is load-bearing: compression
// must see plaintext structured bytes (ciphertext is incompressible),
// encryption must see the fully compressed payload, and error correction
// must be outermost so its shards are computed over exactly the bytes that
// hit the disk.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/norndb/norn/pkg/codec"
	"github.com/norndb/norn/pkg/compress"
	"github.com/norndb/norn/pkg/crypt"
	"github.com/norndb/norn/pkg/ecc"
	"github.com/norndb/norn/pkg/keyring"
)

// Options selects which layers are active for one encode operation. A
// table carries a default Options; an explicit per-value Options overrides
// it at write time. The Descriptor always records what was actually used,
// so later configuration changes never invalidate previously written
// frames.
type Options struct {
	// Codec is the serializer; always required.
	Codec codec.Codec

	// Compressor enables the compression layer when non-nil. Dictionary,
	// when also non-nil, selects a shared dictionary by identifier.
	Compressor compress.Compressor
	Dictionary *compress.Dictionary

	// Cipher enables the encryption layer when non-nil. The key is
	// resolved through the ring for Scope at encode time.
	Cipher crypt.Cipher
	Scope  keyring.Scope

	// DataShards/ParityShards enable the error-correction layer when both
	// are positive.
	DataShards   int
	ParityShards int
}

// Validate reports configuration problems before any bytes move.
func (o Options) Validate() error {
	if o.Codec == nil {
		return fmt.Errorf("pipeline: options require a codec")
	}
	if (o.DataShards > 0) != (o.ParityShards > 0) {
		return fmt.Errorf("pipeline: ecc requires both shard counts, got %d data / %d parity", o.DataShards, o.ParityShards)
	}
	if o.DataShards > 255 || o.ParityShards > 255 {
		return fmt.Errorf("pipeline: shard counts exceed 255")
	}
	if o.Dictionary != nil && o.Compressor == nil {
		return fmt.Errorf("pipeline: dictionary set without a compressor")
	}
	return nil
}

func (o Options) ecc() bool { return o.DataShards > 0 && o.ParityShards > 0 }

// ZeroCopy reports whether this configuration supports borrowed decoding:
// no compression, encryption, or error correction, and a codec that can
// decode views into the stored buffer. Callers use this to make the
// copy/alias trade-off explicit before choosing a configuration.
func (o Options) ZeroCopy() bool {
	return o.Compressor == nil && o.Cipher == nil && !o.ecc() &&
		o.Codec != nil && o.Codec.Borrowing()
}

// Pipeline encodes and decodes framed values. Encode and decode are pure
// functions over byte buffers and key material: a Pipeline holds no locks
// and is safe for concurrent use across independent values.
type Pipeline struct {
	codecs      *codec.Registry
	compressors *compress.Registry
	ciphers     *crypt.Registry
	ring        *keyring.Ring
}

// New creates a pipeline with the built-in registries and the given ring.
func New(ring *keyring.Ring) *Pipeline {
	return &Pipeline{
		codecs:      codec.NewRegistry(),
		compressors: compress.NewRegistry(),
		ciphers:     crypt.NewRegistry(),
		ring:        ring,
	}
}

// Codecs exposes the codec registry for configuration-time lookups.
func (p *Pipeline) Codecs() *codec.Registry { return p.codecs }

// Compressors exposes the compressor registry for configuration-time
// lookups and dictionary registration.
func (p *Pipeline) Compressors() *compress.Registry { return p.compressors }

// Ciphers exposes the cipher registry for configuration-time lookups.
func (p *Pipeline) Ciphers() *crypt.Registry { return p.ciphers }

// Ring exposes the key ring.
func (p *Pipeline) Ring() *keyring.Ring { return p.ring }

// Encode runs the write-side layer stack over v and returns the framed
// blob. Failures never partially apply; on error no frame is produced.
func (p *Pipeline) Encode(v interface{}, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		encodeFailures.Inc()
		return nil, err
	}

	desc := &Descriptor{Version: frameVersion, CodecID: opts.Codec.ID()}

	payload, err := opts.Codec.Encode(v)
	if err != nil {
		encodeFailures.Inc()
		return nil, fmt.Errorf("pipeline: serialize (%s): %w", opts.Codec.Name(), err)
	}

	if opts.Compressor != nil {
		payload, err = opts.Compressor.Compress(payload, opts.Dictionary)
		if err != nil {
			encodeFailures.Inc()
			return nil, fmt.Errorf("pipeline: compress (%s): %w", opts.Compressor.Name(), err)
		}
		desc.Compressed = true
		desc.CompressorID = opts.Compressor.ID()
		if opts.Dictionary != nil {
			desc.DictionaryID = opts.Dictionary.ID
		}
	}

	if opts.Cipher != nil {
		key, err := p.ring.Resolve(opts.Scope)
		if err != nil {
			encodeFailures.Inc()
			return nil, err
		}
		payload, err = opts.Cipher.Seal(payload, key.Material)
		if err != nil {
			encodeFailures.Inc()
			return nil, fmt.Errorf("pipeline: encrypt (%s): %w", opts.Cipher.Name(), err)
		}
		desc.Encrypted = true
		desc.CipherID = opts.Cipher.ID()
		desc.KeyID = key.ID
	}

	if opts.ecc() {
		payload, err = ecc.Encode(payload, opts.DataShards, opts.ParityShards)
		if err != nil {
			encodeFailures.Inc()
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		desc.Corrected = true
		desc.DataShards = uint8(opts.DataShards)
		desc.ParityShards = uint8(opts.ParityShards)
	}

	frame := desc.marshal(make([]byte, 0, 16+len(desc.KeyID)+len(payload)))
	frame = append(frame, payload...)
	encodes.Inc()
	return frame, nil
}

// Decode reverses Encode, driving the layer stack from the frame's own
// descriptor, and deserializes the payload into the value pointed to by
// into.
func (p *Pipeline) Decode(frame []byte, into interface{}) error {
	desc, payload, err := parseDescriptor(frame)
	if err != nil {
		decodeFailures.Inc()
		return err
	}

	if desc.Corrected {
		// The shard counts live both in the descriptor and in the shard
		// blob's own header; disagreement means the frame is lying about
		// itself.
		if len(payload) >= 2 && (payload[0] != desc.DataShards || payload[1] != desc.ParityShards) {
			decodeFailures.Inc()
			return fmt.Errorf("%w: descriptor shard counts %d/%d disagree with shard blob %d/%d",
				ErrCorruptFrame, desc.DataShards, desc.ParityShards, payload[0], payload[1])
		}
		payload, err = ecc.Decode(payload)
		if err != nil {
			decodeFailures.Inc()
			if isMalformed(err) {
				return fmt.Errorf("%w: %v", ErrCorruptFrame, err)
			}
			return err
		}
	}

	if desc.Encrypted {
		cipher, err := p.ciphers.Lookup(desc.CipherID)
		if err != nil {
			decodeFailures.Inc()
			return fmt.Errorf("%w: %v", ErrLayerMismatch, err)
		}
		key, err := p.ring.Lookup(desc.KeyID)
		if err != nil {
			decodeFailures.Inc()
			return err
		}
		payload, err = cipher.Open(payload, key.Material)
		if err != nil {
			// Authenticated decryption failing means the stored bytes
			// were altered.
			decodeFailures.Inc()
			return fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
	}

	if desc.Compressed {
		compressor, err := p.compressors.Lookup(desc.CompressorID)
		if err != nil {
			decodeFailures.Inc()
			return fmt.Errorf("%w: %v", ErrLayerMismatch, err)
		}
		var dict *compress.Dictionary
		if desc.DictionaryID != 0 {
			dict, err = p.compressors.Dictionary(desc.DictionaryID)
			if err != nil {
				decodeFailures.Inc()
				return fmt.Errorf("%w: %v", ErrLayerMismatch, err)
			}
		}
		payload, err = compressor.Decompress(payload, dict)
		if err != nil {
			decodeFailures.Inc()
			return fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
	}

	c, err := p.codecs.Lookup(desc.CodecID)
	if err != nil {
		decodeFailures.Inc()
		return fmt.Errorf("%w: %v", ErrLayerMismatch, err)
	}
	if err := c.Decode(payload, into); err != nil {
		decodeFailures.Inc()
		return fmt.Errorf("%w: deserialize (%s): %v", ErrCorruptFrame, c.Name(), err)
	}
	decodes.Inc()
	return nil
}

func isMalformed(err error) bool {
	return errors.Is(err, ecc.ErrMalformed)
}
