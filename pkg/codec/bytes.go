package codec

import "fmt"

// BytesCodec is the identity codec for raw []byte values. Because decoding
// is a slice assignment, it is the only built-in codec eligible for the
// pipeline's zero-copy decode path.
type BytesCodec struct{}

// ID returns the codec's wire identifier.
func (c *BytesCodec) ID() uint8 { return IDBytes }

// Name returns "bytes".
func (c *BytesCodec) Name() string { return "bytes" }

// Encode returns the []byte value unchanged.
func (c *BytesCodec) Encode(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	default:
		return nil, fmt.Errorf("bytes codec requires a []byte value, got %T", v)
	}
}

// Decode assigns data to the *[]byte pointed to by into. The slice aliases
// the input buffer; callers who need ownership must copy.
func (c *BytesCodec) Decode(data []byte, into interface{}) error {
	target, ok := into.(*[]byte)
	if !ok {
		return fmt.Errorf("bytes codec requires a *[]byte target, got %T", into)
	}
	*target = data
	return nil
}

// Borrowing reports true: the decoded slice aliases the input buffer.
func (c *BytesCodec) Borrowing() bool { return true }
