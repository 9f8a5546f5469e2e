// Package segfile encodes dump segments: a fixed header followed by an
// optionally compressed payload of raw records.
//
// Layout (little-endian):
//
//	magic[4] version u8 flags u8 compression u8 width u8
//	first i32 count u32 rawLen u32 payloadLen u32 crc32c u32
//	payload
//
// The checksum covers the payload as stored.
package segfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/pgraph/internal/conv"
	"github.com/hupe1980/pgraph/internal/hash"
)

const (
	// Version is the current segment format version.
	Version uint8 = 1
	// HeaderSize is the encoded header length.
	HeaderSize = 28

	flagWeighted uint8 = 1 << 0
)

var magic = [4]byte{'P', 'G', 'S', 'G'}

var (
	// ErrCorrupt indicates a malformed or truncated segment.
	ErrCorrupt = errors.New("segfile: corrupt segment")
	// ErrChecksum indicates a payload checksum mismatch.
	ErrChecksum = errors.New("segfile: checksum mismatch")
)

// Header describes the records stored in a segment.
type Header struct {
	Weighted    bool
	Compression Compression
	Width       uint8
	First       int32
	Count       uint32
}

// Encode writes header and raw records into a new segment. The header's
// Compression is a request; the codec actually used is recorded.
func Encode(h Header, raw []byte) ([]byte, error) {
	if h.Width == 0 {
		return nil, fmt.Errorf("segfile: zero record width")
	}
	if len(raw) != int(h.Count)*int(h.Width) {
		return nil, fmt.Errorf("segfile: %d bytes for %d records of width %d", len(raw), h.Count, h.Width)
	}
	rawLen, err := conv.IntToUint32(len(raw))
	if err != nil {
		return nil, err
	}

	payload, used, err := compress(raw, h.Compression)
	if err != nil {
		return nil, fmt.Errorf("segfile: compress: %w", err)
	}

	out := make([]byte, HeaderSize+len(payload))
	copy(out[0:4], magic[:])
	out[4] = Version
	if h.Weighted {
		out[5] = flagWeighted
	}
	out[6] = uint8(used)
	out[7] = h.Width
	binary.LittleEndian.PutUint32(out[8:], uint32(h.First))
	binary.LittleEndian.PutUint32(out[12:], h.Count)
	binary.LittleEndian.PutUint32(out[16:], rawLen)
	binary.LittleEndian.PutUint32(out[20:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[24:], hash.CRC32C(payload))
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Decode validates a segment and returns its header and raw records.
func Decode(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	if [4]byte(data[0:4]) != magic {
		return h, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if data[4] != Version {
		return h, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}

	h.Weighted = data[5]&flagWeighted != 0
	h.Compression = Compression(data[6])
	h.Width = data[7]
	h.First = int32(binary.LittleEndian.Uint32(data[8:]))
	h.Count = binary.LittleEndian.Uint32(data[12:])
	rawLen := binary.LittleEndian.Uint32(data[16:])
	payloadLen := binary.LittleEndian.Uint32(data[20:])
	sum := binary.LittleEndian.Uint32(data[24:])

	if h.Width == 0 || uint64(h.Count)*uint64(h.Width) != uint64(rawLen) {
		return h, nil, fmt.Errorf("%w: %d records of width %d in %d bytes", ErrCorrupt, h.Count, h.Width, rawLen)
	}
	if uint64(len(data)-HeaderSize) != uint64(payloadLen) {
		return h, nil, fmt.Errorf("%w: payload length %d, have %d", ErrCorrupt, payloadLen, len(data)-HeaderSize)
	}
	payload := data[HeaderSize:]
	if hash.CRC32C(payload) != sum {
		return h, nil, ErrChecksum
	}

	raw, err := decompress(payload, h.Compression, int(rawLen))
	if err != nil {
		return h, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return h, raw, nil
}

// EncodeBytes frames an opaque payload as a segment of one-byte records.
func EncodeBytes(raw []byte, c Compression) ([]byte, error) {
	n, err := conv.IntToUint32(len(raw))
	if err != nil {
		return nil, err
	}
	return Encode(Header{Compression: c, Width: 1, Count: n}, raw)
}

// DecodeBytes reverses EncodeBytes.
func DecodeBytes(data []byte) ([]byte, error) {
	h, raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if h.Width != 1 {
		return nil, fmt.Errorf("%w: expected byte segment, got width %d", ErrCorrupt, h.Width)
	}
	return raw, nil
}
