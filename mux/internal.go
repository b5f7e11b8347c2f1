package mux

import (
	"fmt"

	"github.com/gowc3/blp/internal/container"
)

// InternalManager retrieves and assembles mipmap levels for the BLP1
// variant, where every level's bytes live inside the same file at the
// offsets recorded in the Directory.
type InternalManager struct {
	dir   Directory
	data  []byte // the full file, directory entries index into this
	floor int    // levels below this have been flushed
}

// NewInternalManager wraps a parsed Directory over the full file buffer
// the offsets are relative to.
func NewInternalManager(dir Directory, data []byte) *InternalManager {
	return &InternalManager{dir: dir, data: data}
}

// Level returns the raw payload bytes for mipmap level i, for i within
// the 16 directory slots. A zero-size entry is always an error: unlike
// the external variant, an internal directory with a hole is simply
// corrupt.
func (m *InternalManager) Level(i int) ([]byte, error) {
	if i < m.floor || i >= container.MaxDirectoryEntries {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, i)
	}
	off, size := m.dir.Offsets[i], m.dir.Sizes[i]
	if size == 0 {
		return nil, fmt.Errorf("%w: level %d", ErrMipmapMissing, i)
	}
	end := uint64(off) + uint64(size)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("mux: level %d extends past end of file (offset=%d size=%d, file=%d bytes)", i, off, size, len(m.data))
	}
	return m.data[off:end], nil
}

// Fatal reports whether a missing level i aborts decoding. For the
// internal variant every declared level is required: a directory hole
// means the file is corrupt, never that the level was legitimately
// omitted.
func (m *InternalManager) Fatal(int) bool { return true }

// FlushTo asserts that levels below i will no longer be requested.
// Subsequent Level calls for a flushed level fail with ErrInvalidLevel.
func (m *InternalManager) FlushTo(i int) {
	if i > m.floor {
		m.floor = i
	}
}

// BuildDirectory lays out levels (in order, one entry per mipmap level)
// back to back starting at baseOffset and returns the resulting
// Directory alongside the concatenated payload bytes.
func BuildDirectory(levels [][]byte, baseOffset uint32) (Directory, []byte) {
	var dir Directory
	var out []byte
	offset := baseOffset
	for i, level := range levels {
		if i >= container.MaxDirectoryEntries {
			break
		}
		dir.Offsets[i] = offset
		dir.Sizes[i] = uint32(len(level))
		out = append(out, level...)
		offset += uint32(len(level))
	}
	return dir, out
}
