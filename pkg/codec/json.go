package codec

import "encoding/json"

// JSONCodec serializes values as JSON using the standard library encoder.
type JSONCodec struct{}

// ID returns the codec's wire identifier.
func (c *JSONCodec) ID() uint8 { return IDJSON }

// Name returns "json".
func (c *JSONCodec) Name() string { return "json" }

// Encode serializes v as JSON.
func (c *JSONCodec) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes JSON data into the value pointed to by into.
func (c *JSONCodec) Decode(data []byte, into interface{}) error {
	return json.Unmarshal(data, into)
}

// Borrowing reports false: json.Unmarshal always copies.
func (c *JSONCodec) Borrowing() bool { return false }
