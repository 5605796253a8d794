package codec

import "github.com/fxamacker/cbor/v2"

// CBORCodec serializes values as CBOR (RFC 8949) in core deterministic
// encoding, so equal values always produce identical bytes.
type CBORCodec struct{}

// cborEncMode is built once; CoreDetEncOptions are static and valid.
var cborEncMode, _ = cbor.CoreDetEncOptions().EncMode()

// ID returns the codec's wire identifier.
func (c *CBORCodec) ID() uint8 { return IDCBOR }

// Name returns "cbor".
func (c *CBORCodec) Name() string { return "cbor" }

// Encode serializes v as deterministic CBOR.
func (c *CBORCodec) Encode(v interface{}) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// Decode deserializes CBOR data into the value pointed to by into.
func (c *CBORCodec) Decode(data []byte, into interface{}) error {
	return cbor.Unmarshal(data, into)
}

// Borrowing reports false: cbor decoding copies into the target value.
func (c *CBORCodec) Borrowing() bool { return false }
