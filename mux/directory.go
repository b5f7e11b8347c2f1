// Package mux locates and lays out per-mipmap payloads: the internal
// offset/size directory of the BLP1 variant and the sidecar-file scheme
// of the BLP0 variant. Directory entries are zero-copy views into the
// containing file buffer.
package mux

import (
	"errors"
	"fmt"

	"github.com/gowc3/blp/internal/container"
)

var (
	ErrMipmapMissing = errors.New("mux: mipmap level missing")
	ErrInvalidLevel  = errors.New("mux: invalid mipmap level index")
)

// Directory is the BLP1 internal mipmap directory: up to 16 (offset,
// size) pairs, one per mipmap level, stored as two parallel 16-entry
// tables (all offsets, then all sizes).
type Directory struct {
	Offsets [container.MaxDirectoryEntries]uint32
	Sizes   [container.MaxDirectoryEntries]uint32
}

// ParseDirectory reads a Directory from the container.DirectorySize bytes
// at the front of data.
func ParseDirectory(data []byte) (Directory, error) {
	if len(data) < container.DirectorySize {
		return Directory{}, fmt.Errorf("mux: directory truncated: have %d bytes, need %d", len(data), container.DirectorySize)
	}
	var d Directory
	for i := 0; i < container.MaxDirectoryEntries; i++ {
		d.Offsets[i] = container.ReadLE32(data[i*4 : i*4+4])
	}
	base := container.MaxDirectoryEntries * 4
	for i := 0; i < container.MaxDirectoryEntries; i++ {
		d.Sizes[i] = container.ReadLE32(data[base+i*4 : base+i*4+4])
	}
	return d, nil
}

// WriteTo encodes d into the container.DirectorySize bytes at the front
// of buf.
func (d Directory) WriteTo(buf []byte) {
	_ = buf[container.DirectorySize-1]
	for i := 0; i < container.MaxDirectoryEntries; i++ {
		container.PutLE32(buf[i*4:i*4+4], d.Offsets[i])
	}
	base := container.MaxDirectoryEntries * 4
	for i := 0; i < container.MaxDirectoryEntries; i++ {
		container.PutLE32(buf[base+i*4:base+i*4+4], d.Sizes[i])
	}
}

// Bytes returns the encoded directory as a freshly allocated buffer.
func (d Directory) Bytes() []byte {
	buf := make([]byte, container.DirectorySize)
	d.WriteTo(buf)
	return buf
}

// Active reports whether level has a non-empty directory entry.
func (d Directory) Active(level int) bool {
	if level < 0 || level >= container.MaxDirectoryEntries {
		return false
	}
	return d.Sizes[level] > 0
}
