package pipeline

import (
	"encoding/binary"
	"fmt"
)

// Frame wire constants. The magic and version head every stored value;
// bumping the version is how future layer additions stay
// backward-decodable.
const (
	frameMagic   uint16 = 0x4E46 // "NF"
	frameVersion uint8  = 1

	flagCompressed uint8 = 1 << 0
	flagEncrypted  uint8 = 1 << 1
	flagECC        uint8 = 1 << 2
	flagKnown      uint8 = flagCompressed | flagEncrypted | flagECC
)

// Descriptor records which transformation layers produced a stored frame
// and with which parameters. It is written at encode time and fully
// determines the decode path: a reader never needs external configuration
// to reverse a frame. Descriptors are never mutated in place.
//
// Wire layout, little-endian, fields present only when the matching flag
// bit is set:
//
//	magic(2) version(1) flags(1) codecID(1)
//	[compressorID(1) dictionaryID(4)]
//	[cipherID(1) keyIDLen(2) keyID(keyIDLen)]
//	[dataShards(1) parityShards(1)]
type Descriptor struct {
	Version uint8
	CodecID uint8

	Compressed   bool
	CompressorID uint8
	DictionaryID uint32

	Encrypted bool
	CipherID  uint8
	KeyID     string

	Corrected    bool
	DataShards   uint8
	ParityShards uint8
}

func (d *Descriptor) flags() uint8 {
	var f uint8
	if d.Compressed {
		f |= flagCompressed
	}
	if d.Encrypted {
		f |= flagEncrypted
	}
	if d.Corrected {
		f |= flagECC
	}
	return f
}

// marshal appends the wire form of the descriptor to buf.
func (d *Descriptor) marshal(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, frameMagic)
	buf = append(buf, d.Version, d.flags(), d.CodecID)
	if d.Compressed {
		buf = append(buf, d.CompressorID)
		buf = binary.LittleEndian.AppendUint32(buf, d.DictionaryID)
	}
	if d.Encrypted {
		buf = append(buf, d.CipherID)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(d.KeyID)))
		buf = append(buf, d.KeyID...)
	}
	if d.Corrected {
		buf = append(buf, d.DataShards, d.ParityShards)
	}
	return buf
}

// parseDescriptor reads a descriptor off the front of a frame and returns
// it together with the remaining payload bytes.
func parseDescriptor(frame []byte) (*Descriptor, []byte, error) {
	if len(frame) < 5 {
		return nil, nil, fmt.Errorf("%w: %d bytes is shorter than the fixed header", ErrCorruptFrame, len(frame))
	}
	if binary.LittleEndian.Uint16(frame) != frameMagic {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrCorruptFrame)
	}

	d := &Descriptor{Version: frame[2], CodecID: frame[4]}
	if d.Version != frameVersion {
		return nil, nil, fmt.Errorf("%w: unsupported frame version %d", ErrCorruptFrame, d.Version)
	}

	flags := frame[3]
	if flags&^flagKnown != 0 {
		return nil, nil, fmt.Errorf("%w: unknown flag bits 0x%02x", ErrCorruptFrame, flags&^flagKnown)
	}
	d.Compressed = flags&flagCompressed != 0
	d.Encrypted = flags&flagEncrypted != 0
	d.Corrected = flags&flagECC != 0

	rest := frame[5:]
	if d.Compressed {
		if len(rest) < 5 {
			return nil, nil, fmt.Errorf("%w: truncated compression parameters", ErrCorruptFrame)
		}
		d.CompressorID = rest[0]
		d.DictionaryID = binary.LittleEndian.Uint32(rest[1:5])
		rest = rest[5:]
	}
	if d.Encrypted {
		if len(rest) < 3 {
			return nil, nil, fmt.Errorf("%w: truncated encryption parameters", ErrCorruptFrame)
		}
		d.CipherID = rest[0]
		keyIDLen := int(binary.LittleEndian.Uint16(rest[1:3]))
		rest = rest[3:]
		if len(rest) < keyIDLen {
			return nil, nil, fmt.Errorf("%w: truncated key identifier", ErrCorruptFrame)
		}
		d.KeyID = string(rest[:keyIDLen])
		rest = rest[keyIDLen:]
	}
	if d.Corrected {
		if len(rest) < 2 {
			return nil, nil, fmt.Errorf("%w: truncated shard counts", ErrCorruptFrame)
		}
		d.DataShards = rest[0]
		d.ParityShards = rest[1]
		rest = rest[2:]
	}
	return d, rest, nil
}

// Describe parses a frame's descriptor without decoding the payload. This
// is the introspection entry point for tooling.
func Describe(frame []byte) (*Descriptor, error) {
	d, _, err := parseDescriptor(frame)
	return d, err
}
