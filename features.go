package blp

import "github.com/gowc3/blp/internal/container"

// Features is a cheap, header-only summary of a BLP stream: everything
// a caller can learn without decoding any mipmap payload.
type Features struct {
	Version     Version
	Encoding    EncodingKind
	AlphaBits   int
	Width       int
	Height      int
	HasMipmaps  bool
	MipmapCount int
}

// GetFeatures parses only the fixed header of data and returns a
// Features summary, without touching the mipmap directory or any
// payload.
func GetFeatures(data []byte) (Features, error) {
	h, _, err := container.ParseHeader(data)
	if err != nil {
		return Features{}, err
	}
	return Features{
		Version:     h.Version,
		Encoding:    h.Encoding,
		AlphaBits:   h.AlphaBits,
		Width:       h.Width,
		Height:      h.Height,
		HasMipmaps:  h.HasMipmaps,
		MipmapCount: h.MipmapCount(),
	}, nil
}
