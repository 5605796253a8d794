package codec

import "github.com/vmihailenco/msgpack/v5"

// MessagePackCodec serializes values as MessagePack. It is the compact
// default for tables that don't need human-readable storage.
type MessagePackCodec struct{}

// ID returns the codec's wire identifier.
func (c *MessagePackCodec) ID() uint8 { return IDMessagePack }

// Name returns "msgpack".
func (c *MessagePackCodec) Name() string { return "msgpack" }

// Encode serializes v as MessagePack.
func (c *MessagePackCodec) Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes MessagePack data into the value pointed to by into.
func (c *MessagePackCodec) Decode(data []byte, into interface{}) error {
	return msgpack.Unmarshal(data, into)
}

// Borrowing reports false: msgpack decoding copies into the target value.
func (c *MessagePackCodec) Borrowing() bool { return false }
