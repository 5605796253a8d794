package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type animal struct {
	Name    string   `json:"name" msgpack:"name" cbor:"name"`
	Habitat string   `json:"habitat" msgpack:"habitat" cbor:"habitat"`
	Age     int64    `json:"age" msgpack:"age" cbor:"age"`
	Tags    []string `json:"tags,omitempty" msgpack:"tags,omitempty" cbor:"tags,omitempty"`
}

func TestCodecs_RoundTrip(t *testing.T) {
	original := animal{
		Name:    "Mantis Shrimp",
		Habitat: "Tide Pool",
		Age:     3,
		Tags:    []string{"colorful", "punchy"},
	}

	for _, c := range []Codec{&JSONCodec{}, &MessagePackCodec{}, &CBORCodec{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Encode(&original)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			var decoded animal
			require.NoError(t, c.Decode(data, &decoded))
			assert.Equal(t, original, decoded)
		})
	}
}

func TestBytesCodec_Identity(t *testing.T) {
	c := &BytesCodec{}
	payload := []byte("raw payload")

	data, err := c.Encode(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	var decoded []byte
	require.NoError(t, c.Decode(data, &decoded))
	assert.Equal(t, payload, decoded)

	// Borrowed decode aliases the input buffer.
	assert.True(t, c.Borrowing())
	assert.Same(t, &data[0], &decoded[0])
}

func TestBytesCodec_RejectsOtherTypes(t *testing.T) {
	c := &BytesCodec{}

	_, err := c.Encode(42)
	assert.Error(t, err)

	var wrong string
	assert.Error(t, c.Decode([]byte("x"), &wrong))
}

func TestCBORCodec_Deterministic(t *testing.T) {
	c := &CBORCodec{}
	v := map[string]int{"b": 2, "a": 1, "c": 3}

	first, err := c.Encode(v)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := c.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()

	c, err := reg.Lookup(IDMessagePack)
	require.NoError(t, err)
	assert.Equal(t, "msgpack", c.Name())

	c, err = reg.LookupName("cbor")
	require.NoError(t, err)
	assert.Equal(t, IDCBOR, c.ID())

	_, err = reg.Lookup(200)
	assert.Error(t, err)

	_, err = reg.LookupName("bincode")
	assert.Error(t, err)
}

func TestRegistry_RejectsDuplicateID(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(&JSONCodec{})
	assert.Error(t, err)
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, []string{"bytes", "cbor", "json", "msgpack"}, reg.Names())
}
