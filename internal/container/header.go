package container

import (
	"errors"
	"fmt"
	"math/bits"
)

// Wire-level sentinel errors for header and directory validation. The root
// package re-exports these under its own names so callers can use
// errors.Is against either.
var (
	ErrUnsupportedMagic    = errors.New("blp: unrecognized magic")
	ErrUnsupportedVersion  = errors.New("blp: BLP2 and later are not supported")
	ErrUnsupportedEncoding = errors.New("blp: unrecognized encoding kind code")
	ErrUnsupportedAlpha    = errors.New("blp: alphaBits not valid for this encoding")
	ErrInvalidDimensions   = errors.New("blp: width/height must be positive and within range")
	ErrTruncated           = errors.New("blp: unexpected end of stream")
)

// magicBLP2 is recognized only so it can be rejected with ErrUnsupportedVersion
// instead of the less specific ErrUnsupportedMagic.
const magicBLP2 = "BLP2"

// Header is the parsed 28-byte fixed BLP header.
type Header struct {
	Version    Version
	Encoding   EncodingKind
	AlphaBits  int
	Width      int
	Height     int
	HasMipmaps bool

	// Reserved carries the header's offset-20 u32 verbatim. It is ignored
	// by every decision the codec makes and is always written back as
	// zero.
	Reserved uint32
}

// MipmapCount returns the number of mipmap levels this header declares:
// floor(log2(max(width,height)))+1 when HasMipmaps, else 1.
func (h Header) MipmapCount() int {
	if !h.HasMipmaps {
		return 1
	}
	m := h.Width
	if h.Height > m {
		m = h.Height
	}
	return bits.Len(uint(m))
}

// LevelDimensions returns the dimensions of mipmap level i:
// (max(width>>i,1), max(height>>i,1)).
func (h Header) LevelDimensions(i int) (w, h2 int) {
	w = h.Width >> uint(i)
	if w < 1 {
		w = 1
	}
	h2 = h.Height >> uint(i)
	if h2 < 1 {
		h2 = 1
	}
	return
}

// ParseHeader validates and parses the fixed 28-byte header from the front
// of data. It returns the header and the number of bytes consumed
// (always HeaderSize on success).
func ParseHeader(data []byte) (Header, int, error) {
	if len(data) < HeaderSize {
		return Header{}, 0, ErrTruncated
	}

	magic := string(data[0:4])
	var version Version
	switch magic {
	case MagicBLP0:
		version = VersionBLP0
	case MagicBLP1:
		version = VersionBLP1
	case magicBLP2:
		return Header{}, 0, ErrUnsupportedVersion
	default:
		return Header{}, 0, fmt.Errorf("%w: %q", ErrUnsupportedMagic, magic)
	}

	encodingCode := ReadLE32(data[4:8])
	encoding := EncodingKind(encodingCode)
	if !encoding.Valid() {
		return Header{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedEncoding, encodingCode)
	}

	alphaBits := int(ReadLE32(data[8:12]))
	if !encoding.AlphaBitsValid(alphaBits) {
		return Header{}, 0, fmt.Errorf("%w: %d bits for %s", ErrUnsupportedAlpha, alphaBits, encoding)
	}

	width := int(ReadLE32(data[12:16]))
	height := int(ReadLE32(data[16:20]))
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return Header{}, 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	reserved := ReadLE32(data[20:24])
	hasMipmaps := ReadLE32(data[24:28]) != 0

	h := Header{
		Version:    version,
		Encoding:   encoding,
		AlphaBits:  alphaBits,
		Width:      width,
		Height:     height,
		HasMipmaps: hasMipmaps,
		Reserved:   reserved,
	}
	return h, HeaderSize, nil
}

// WriteTo encodes h as the fixed 28-byte header. The reserved field is
// always emitted as zero.
func (h Header) WriteTo(buf []byte) {
	_ = buf[HeaderSize-1] // bounds check hint
	copy(buf[0:4], h.Version.Magic())
	PutLE32(buf[4:8], uint32(h.Encoding))
	PutLE32(buf[8:12], uint32(h.AlphaBits))
	PutLE32(buf[12:16], uint32(h.Width))
	PutLE32(buf[16:20], uint32(h.Height))
	PutLE32(buf[20:24], 0)
	hasMipmaps := uint32(0)
	if h.HasMipmaps {
		hasMipmaps = 1
	}
	PutLE32(buf[24:28], hasMipmaps)
}

// Bytes returns the encoded header as a freshly allocated HeaderSize buffer.
func (h Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	h.WriteTo(buf)
	return buf
}
