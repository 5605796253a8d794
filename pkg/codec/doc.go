// Package codec provides the pluggable value serializers for NornDB.
//
// A Codec converts a typed value to and from bytes. Serialization is the
// innermost layer of the value pipeline: it always runs first on write and
// last on read. Which codec is active is a configuration choice made when a
// table is constructed, not a per-call one, but every stored frame records
// the codec that actually produced it so old values remain decodable after
// a configuration change.
//
// # Built-in codecs
//
//   - JSON (encoding/json): human-readable, interoperable
//   - MessagePack (vmihailenco/msgpack): compact, fast
//   - CBOR (fxamacker/cbor): compact, deterministic encoding options
//   - Bytes: identity codec for []byte values, supports borrowed decode
//
// # Registry
//
// Codecs are registered by a one-byte identifier. The identifier is what
// gets written into the frame header, so identifiers are part of the wire
// format and must never be reassigned:
//
//	reg := codec.NewRegistry()
//	c, err := reg.Lookup(codec.IDMessagePack)
//
// # Round-trip contract
//
// For every representable value v, Decode(Encode(v)) must yield a value
// equal to v. Codecs are stateless and safe for concurrent use.
package codec
