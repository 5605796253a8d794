package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repetitivePayload() []byte {
	return bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 128)
}

func TestCompressors_RoundTrip(t *testing.T) {
	payload := repetitivePayload()

	for _, c := range []Compressor{NewZstd(), &S2Compressor{}, &GzipCompressor{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(payload, nil)
			require.NoError(t, err)
			assert.Less(t, len(compressed), len(payload), "repetitive payload should shrink")

			decompressed, err := c.Decompress(compressed, nil)
			require.NoError(t, err)
			assert.Equal(t, payload, decompressed)
		})
	}
}

func TestCompressors_EmptyInput(t *testing.T) {
	for _, c := range []Compressor{NewZstd(), &S2Compressor{}, &GzipCompressor{}} {
		t.Run(c.Name(), func(t *testing.T) {
			compressed, err := c.Compress(nil, nil)
			require.NoError(t, err)

			decompressed, err := c.Decompress(compressed, nil)
			require.NoError(t, err)
			assert.Empty(t, decompressed)
		})
	}
}

func TestZstd_WithDictionary(t *testing.T) {
	c := NewZstd()
	payload := repetitivePayload()

	// A raw-content dictionary built from a sample of the payload.
	dict := &Dictionary{ID: 7, Data: payload[:256]}

	compressed, err := c.Compress(payload, dict)
	require.NoError(t, err)

	decompressed, err := c.Decompress(compressed, dict)
	require.NoError(t, err)
	assert.Equal(t, payload, decompressed)
}

func TestDictionaryUnsupported(t *testing.T) {
	dict := &Dictionary{ID: 1, Data: []byte("sample")}

	for _, c := range []Compressor{&S2Compressor{}, &GzipCompressor{}} {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Compress([]byte("data"), dict)
			assert.Error(t, err)

			_, err = c.Decompress([]byte("data"), dict)
			assert.Error(t, err)
		})
	}
}

func TestDecompress_GarbageFails(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}

	for _, c := range []Compressor{NewZstd(), &GzipCompressor{}} {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Decompress(garbage, nil)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Dictionaries(t *testing.T) {
	reg := NewRegistry()

	require.Error(t, reg.RegisterDictionary(&Dictionary{ID: 0}), "id 0 is reserved")

	d := &Dictionary{ID: 42, Data: []byte("shared")}
	require.NoError(t, reg.RegisterDictionary(d))
	require.Error(t, reg.RegisterDictionary(d), "duplicate id")

	got, err := reg.Dictionary(42)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	_, err = reg.Dictionary(99)
	assert.Error(t, err)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()

	c, err := reg.Lookup(IDZstd)
	require.NoError(t, err)
	assert.Equal(t, "zstd", c.Name())

	c, err = reg.LookupName("s2")
	require.NoError(t, err)
	assert.Equal(t, IDS2, c.ID())

	_, err = reg.Lookup(99)
	assert.Error(t, err)
}
