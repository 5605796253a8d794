package pipeline

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norndb/norn/pkg/codec"
	"github.com/norndb/norn/pkg/compress"
	"github.com/norndb/norn/pkg/crypt"
	"github.com/norndb/norn/pkg/keyring"
)

type record struct {
	Name  string `json:"name" msgpack:"name" cbor:"name"`
	Color string `json:"color" msgpack:"color" cbor:"color"`
	Count int64  `json:"count" msgpack:"count" cbor:"count"`
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	ring := keyring.NewRing()
	key, err := keyring.NewRawKey("test-db-key", bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	ring.SetDatabaseKey(key)
	return New(ring)
}

// layerMatrix enumerates every combination of optional layers over every
// codec, the round-trip property the whole design hangs on.
func layerMatrix(p *Pipeline) []Options {
	var matrix []Options
	codecs := []codec.Codec{&codec.JSONCodec{}, &codec.MessagePackCodec{}, &codec.CBORCodec{}}
	compressors := []compress.Compressor{nil, compress.NewZstd(), &compress.S2Compressor{}}
	ciphers := []crypt.Cipher{nil, &crypt.AESGCM{}, &crypt.ChaCha20Poly1305{}}
	eccCounts := [][2]int{{0, 0}, {4, 2}}

	for _, c := range codecs {
		for _, cmp := range compressors {
			for _, ciph := range ciphers {
				for _, shards := range eccCounts {
					matrix = append(matrix, Options{
						Codec:        c,
						Compressor:   cmp,
						Cipher:       ciph,
						DataShards:   shards[0],
						ParityShards: shards[1],
					})
				}
			}
		}
	}
	return matrix
}

func optionsLabel(o Options) string {
	name := o.Codec.Name()
	if o.Compressor != nil {
		name += "+" + o.Compressor.Name()
	}
	if o.Cipher != nil {
		name += "+" + o.Cipher.Name()
	}
	if o.DataShards > 0 {
		name += fmt.Sprintf("+ecc(%d,%d)", o.DataShards, o.ParityShards)
	}
	return name
}

func TestPipeline_RoundTripMatrix(t *testing.T) {
	p := testPipeline(t)
	original := record{Name: "R1", Color: "red", Count: 7}

	for _, opts := range layerMatrix(p) {
		t.Run(optionsLabel(opts), func(t *testing.T) {
			frame, err := p.Encode(&original, opts)
			require.NoError(t, err)

			var decoded record
			require.NoError(t, p.Decode(frame, &decoded))
			assert.Equal(t, original, decoded)
		})
	}
}

func TestPipeline_DescriptorRecordsActualLayers(t *testing.T) {
	p := testPipeline(t)
	opts := Options{
		Codec:        &codec.MessagePackCodec{},
		Compressor:   compress.NewZstd(),
		Cipher:       &crypt.ChaCha20Poly1305{},
		DataShards:   4,
		ParityShards: 2,
	}

	frame, err := p.Encode(&record{Name: "R1"}, opts)
	require.NoError(t, err)

	desc, err := Describe(frame)
	require.NoError(t, err)
	assert.Equal(t, codec.IDMessagePack, desc.CodecID)
	assert.True(t, desc.Compressed)
	assert.Equal(t, compress.IDZstd, desc.CompressorID)
	assert.True(t, desc.Encrypted)
	assert.Equal(t, crypt.IDChaCha20Poly1305, desc.CipherID)
	assert.Equal(t, "test-db-key", desc.KeyID)
	assert.True(t, desc.Corrected)
	assert.Equal(t, uint8(4), desc.DataShards)
	assert.Equal(t, uint8(2), desc.ParityShards)
}

func TestPipeline_OldFramesOutliveConfigChanges(t *testing.T) {
	// A frame written with one configuration must stay decodable after
	// the table default changes: the descriptor, not the configuration,
	// drives the decode path.
	p := testPipeline(t)
	original := record{Name: "R1", Color: "blue"}

	frame, err := p.Encode(&original, Options{Codec: &codec.JSONCodec{}, Compressor: &compress.S2Compressor{}})
	require.NoError(t, err)

	// "Current" configuration is now msgpack+ecc; the old frame decodes anyway.
	var decoded record
	require.NoError(t, p.Decode(frame, &decoded))
	assert.Equal(t, original, decoded)
}

func TestPipeline_DictionaryRoundTrip(t *testing.T) {
	p := testPipeline(t)
	dict := &compress.Dictionary{ID: 9, Data: bytes.Repeat([]byte("sample "), 40)}
	require.NoError(t, p.Compressors().RegisterDictionary(dict))

	opts := Options{Codec: &codec.JSONCodec{}, Compressor: compress.NewZstd(), Dictionary: dict}
	original := record{Name: "dictionary-compressed", Color: "green"}

	frame, err := p.Encode(&original, opts)
	require.NoError(t, err)

	desc, err := Describe(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), desc.DictionaryID)

	var decoded record
	require.NoError(t, p.Decode(frame, &decoded))
	assert.Equal(t, original, decoded)
}

func TestPipeline_KeyRotation(t *testing.T) {
	p := testPipeline(t)
	opts := Options{Codec: &codec.JSONCodec{}, Cipher: &crypt.AESGCM{}}

	frame, err := p.Encode(&record{Name: "sealed-with-gen-1"}, opts)
	require.NoError(t, err)

	// Rotate the database key. The old frame still decodes because the
	// ring retains the retired key by identifier.
	newKey, err := keyring.NewRawKey("gen-2", bytes.Repeat([]byte{0x99}, 32))
	require.NoError(t, err)
	p.Ring().SetDatabaseKey(newKey)

	var decoded record
	require.NoError(t, p.Decode(frame, &decoded))
	assert.Equal(t, "sealed-with-gen-1", decoded.Name)

	// New writes pick up the new key.
	frame2, err := p.Encode(&record{Name: "sealed-with-gen-2"}, opts)
	require.NoError(t, err)
	desc, err := Describe(frame2)
	require.NoError(t, err)
	assert.Equal(t, "gen-2", desc.KeyID)

	// Purging the retired key makes the old frame undecodable.
	p.Ring().Purge("test-db-key")
	err = p.Decode(frame, &decoded)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestPipeline_ZeroCopy(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"bytes codec plain", Options{Codec: &codec.BytesCodec{}}, true},
		{"json plain", Options{Codec: &codec.JSONCodec{}}, false},
		{"bytes with compression", Options{Codec: &codec.BytesCodec{}, Compressor: &compress.S2Compressor{}}, false},
		{"bytes with encryption", Options{Codec: &codec.BytesCodec{}, Cipher: &crypt.AESGCM{}}, false},
		{"bytes with ecc", Options{Codec: &codec.BytesCodec{}, DataShards: 4, ParityShards: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.ZeroCopy())
		})
	}
}

func TestPipeline_ZeroCopyDecodeAliasesFrame(t *testing.T) {
	p := testPipeline(t)
	opts := Options{Codec: &codec.BytesCodec{}}
	require.True(t, opts.ZeroCopy())

	frame, err := p.Encode([]byte("borrowed payload"), opts)
	require.NoError(t, err)

	var decoded []byte
	require.NoError(t, p.Decode(frame, &decoded))
	assert.Equal(t, []byte("borrowed payload"), decoded)
	assert.Same(t, &frame[len(frame)-1], &decoded[len(decoded)-1])
}

func TestPipeline_CorruptFrameErrors(t *testing.T) {
	p := testPipeline(t)

	frame, err := p.Encode(&record{Name: "R1"}, Options{Codec: &codec.JSONCodec{}})
	require.NoError(t, err)

	var into record
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0x00, 0x00}, frame[2:]...)},
		{"bad version", mutate(frame, 2, 0x7F)},
		{"unknown flags", mutate(frame, 3, 0xF0)},
		{"truncated header", frame[:3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, p.Decode(tt.frame, &into), ErrCorruptFrame)
		})
	}
}

func TestPipeline_LayerMismatch(t *testing.T) {
	p := testPipeline(t)

	frame, err := p.Encode(&record{Name: "R1"}, Options{Codec: &codec.JSONCodec{}})
	require.NoError(t, err)

	// Patch the recorded codec id to one that is not registered.
	var into record
	err = p.Decode(mutate(frame, 4, 99), &into)
	assert.ErrorIs(t, err, ErrLayerMismatch)
}

func TestPipeline_TamperedCiphertext(t *testing.T) {
	p := testPipeline(t)
	opts := Options{Codec: &codec.JSONCodec{}, Cipher: &crypt.ChaCha20Poly1305{}}

	frame, err := p.Encode(&record{Name: "R1"}, opts)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 0xFF

	var into record
	assert.ErrorIs(t, p.Decode(frame, &into), ErrCorruptFrame)
}

func TestPipeline_ECCRecoversCorruption(t *testing.T) {
	p := testPipeline(t)
	opts := Options{Codec: &codec.JSONCodec{}, DataShards: 4, ParityShards: 2}
	original := record{Name: "survives bitrot", Color: "red", Count: 1}

	frame, err := p.Encode(&original, opts)
	require.NoError(t, err)

	// Flip a byte in the first data shard: descriptor (7 bytes), then the
	// shard blob's fixed header (14 bytes) and six shard CRCs (24 bytes).
	frame[7+14+24+2] ^= 0xFF

	var decoded record
	require.NoError(t, p.Decode(frame, &decoded))
	assert.Equal(t, original, decoded)
}

func TestPipeline_ShardCountCrossCheck(t *testing.T) {
	p := testPipeline(t)
	opts := Options{Codec: &codec.JSONCodec{}, DataShards: 4, ParityShards: 2}

	frame, err := p.Encode(&record{Name: "R1"}, opts)
	require.NoError(t, err)

	desc, err := Describe(frame)
	require.NoError(t, err)
	require.True(t, desc.Corrected)

	// For an ecc-only frame the descriptor is 7 bytes (fixed header plus
	// the two shard counts); the shard blob follows with its own copy of
	// the counts. Desynchronize them.
	const headerLen = 7
	require.Equal(t, byte(4), frame[headerLen], "shard blob should open with its data shard count")
	frame[headerLen] = 8

	var into record
	assert.ErrorIs(t, p.Decode(frame, &into), ErrCorruptFrame)
}

func TestOptions_Validate(t *testing.T) {
	assert.Error(t, Options{}.Validate(), "codec required")
	assert.Error(t, Options{Codec: &codec.JSONCodec{}, DataShards: 4}.Validate(), "parity required with data shards")
	assert.Error(t, Options{Codec: &codec.JSONCodec{}, Dictionary: &compress.Dictionary{ID: 1}}.Validate(), "dictionary without compressor")
	assert.NoError(t, Options{Codec: &codec.JSONCodec{}}.Validate())
}

func TestPipeline_EncryptionWithoutKeyFails(t *testing.T) {
	p := New(keyring.NewRing()) // empty ring

	_, err := p.Encode(&record{}, Options{Codec: &codec.JSONCodec{}, Cipher: &crypt.AESGCM{}})
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func mutate(frame []byte, index int, value byte) []byte {
	out := append([]byte{}, frame...)
	out[index] = value
	return out
}
