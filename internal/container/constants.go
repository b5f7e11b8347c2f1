// Package container implements the wire-level pieces of the BLP file
// format: the fixed header and the constants shared by the header, the
// mipmap directory, and the two payload processors.
package container

import "encoding/binary"

// Magic values identifying the two supported container versions. BLP2
// (World of Warcraft) uses a different magic and is explicitly unsupported.
const (
	MagicBLP0 = "BLP0"
	MagicBLP1 = "BLP1"
)

// Version identifies which magic a stream declared.
type Version int

const (
	VersionUnknown Version = iota
	VersionBLP0            // external-chunk variant: mipmaps live in sidecar files
	VersionBLP1            // internal-chunk variant: mipmaps live in an offset/size table
)

func (v Version) String() string {
	switch v {
	case VersionBLP0:
		return "BLP0"
	case VersionBLP1:
		return "BLP1"
	default:
		return "unknown"
	}
}

// Magic returns the 4-byte ASCII magic for v.
func (v Version) Magic() string {
	switch v {
	case VersionBLP0:
		return MagicBLP0
	case VersionBLP1:
		return MagicBLP1
	default:
		return ""
	}
}

// EncodingKind selects the payload processor: palettised index+alpha, or
// shared-header JPEG.
type EncodingKind int

const (
	EncodingJpeg    EncodingKind = 0
	EncodingIndexed EncodingKind = 1
)

func (e EncodingKind) String() string {
	switch e {
	case EncodingJpeg:
		return "JPEG"
	case EncodingIndexed:
		return "INDEXED"
	default:
		return "unknown"
	}
}

// Valid reports whether e is one of the two known encoding kinds.
func (e EncodingKind) Valid() bool {
	return e == EncodingJpeg || e == EncodingIndexed
}

// AllowedAlphaBits returns the set of alphaBits values valid for e.
func (e EncodingKind) AllowedAlphaBits() []int {
	if e == EncodingIndexed {
		return []int{0, 1, 4, 8}
	}
	return []int{0, 8}
}

// AlphaBitsValid reports whether bits is a legal alpha depth for e.
func (e EncodingKind) AlphaBitsValid(bits int) bool {
	for _, a := range e.AllowedAlphaBits() {
		if a == bits {
			return true
		}
	}
	return false
}

// Fixed wire sizes, all little-endian.
const (
	// HeaderSize: magic(4) + encoding(4) + alphaBits(4) + width(4) +
	// height(4) + reserved(4) + hasMipmaps(4).
	HeaderSize = 28

	// DirectoryEntrySize is the size of one (offset,size) pair in the
	// internal-variant mipmap directory.
	DirectoryEntrySize = 8
	// MaxDirectoryEntries is the fixed directory length (16 slots),
	// regardless of how many mipmaps a given file actually carries.
	MaxDirectoryEntries = 16
	// DirectorySize is the total byte size of the offset table followed
	// by the size table: 16 offsets + 16 sizes, 4 bytes each.
	DirectorySize = 2 * MaxDirectoryEntries * 4

	// IndexedPaletteSize is the fixed size of the indexed processor's
	// palette prelude: 256 little-endian 32-bit words.
	IndexedPaletteSize = 256 * 4

	// MaxJpegSharedHeader is the soft ceiling on the JPEG shared-header
	// prelude length. Lengths beyond this are suspicious but not fatal.
	MaxJpegSharedHeader = 624

	// MaxDimension is the largest width or height the header can encode.
	MaxDimension = 1 << 16
)

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutLE16 writes a little-endian uint16 to data.
func PutLE16(data []byte, v uint16) {
	binary.LittleEndian.PutUint16(data, v)
}

// PutLE32 writes a little-endian uint32 to data.
func PutLE32(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}
