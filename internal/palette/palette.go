// Package palette implements the indexed color model: a 256-entry RGB
// palette plus optional separate alpha, nearest-neighbor quantization in
// sRGB space, and alpha bit-depth rescaling.
package palette

import (
	"errors"
	"math"
)

var ErrTooManyColors = errors.New("blp: more than 256 distinct colors")

// RGB24 is a palette entry's color, stored as three 8-bit channels.
type RGB24 struct {
	R, G, B byte
}

// Word encodes c as the on-disk 0x00BBGGRR little-endian word (the high
// byte is reserved and always written as zero).
func (c RGB24) Word() uint32 {
	return uint32(c.R) | uint32(c.G)<<8 | uint32(c.B)<<16
}

// RGB24FromWord decodes a 0x00BBGGRR word into its RGB channels, ignoring
// the reserved high byte.
func RGB24FromWord(w uint32) RGB24 {
	return RGB24{R: byte(w), G: byte(w >> 8), B: byte(w >> 16)}
}

// Palette is a 256-entry index-to-color mapping.
type Palette struct {
	Entries [256]RGB24
}

// FromWords builds a Palette from on-disk 0x00BBGGRR words. A palette
// always has exactly 256 entries; if the caller supplies fewer, the
// remainder are zero-filled. More than 256 is rejected.
func FromWords(words []uint32) (Palette, error) {
	if len(words) > 256 {
		return Palette{}, ErrTooManyColors
	}
	var p Palette
	for i, w := range words {
		p.Entries[i] = RGB24FromWord(w)
	}
	return p, nil
}

// Words encodes p as 256 on-disk 0x00BBGGRR words.
func (p Palette) Words() [256]uint32 {
	var out [256]uint32
	for i, e := range p.Entries {
		out[i] = e.Word()
	}
	return out
}

// ColorSpace identifies how a Palette's stored bytes should be
// interpreted when converting to/from normalized float components.
type ColorSpace int

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

// DefaultCube returns the universal 8x8x4 RGB fallback palette (R and G
// at 8 levels, B at 4 levels, 8*8*4 = 256 entries), uniformly distributed
// across sRGB and converted into targetSpace. It is used only when a
// writer is given no palette of its own.
func DefaultCube(targetSpace ColorSpace) Palette {
	var p Palette
	idx := 0
	for ri := 0; ri < 8; ri++ {
		for gi := 0; gi < 8; gi++ {
			for bi := 0; bi < 4; bi++ {
				rs := float64(ri) / 7.0
				gs := float64(gi) / 7.0
				bs := float64(bi) / 3.0
				if targetSpace == ColorSpaceLinear {
					rs, gs, bs = srgbToLinear(rs), srgbToLinear(gs), srgbToLinear(bs)
				}
				p.Entries[idx] = RGB24{R: unitToByte(rs), G: unitToByte(gs), B: unitToByte(bs)}
				idx++
			}
		}
	}
	return p
}

// Model maps pixel values (index, alpha) to normalized linear-RGBA and
// performs nearest-neighbor sRGB quantization for the reverse direction.
// It is best-effort: callers with quality requirements are expected to
// pre-quantize and supply indexed rasters directly.
type Model struct {
	palette    Palette
	colorSpace ColorSpace

	// srgbCache is the lazy, write-once cache of all 256 entries
	// converted to sRGB, used by Quantize. Guarded by cached, not a
	// mutex: a Model is single-owner, never shared across goroutines.
	srgbCache [256][3]float64
	cached    bool
}

// NewModel constructs a Model over palette in the given color space. If
// palette is nil, the universal fallback cube is substituted.
func NewModel(p *Palette, colorSpace ColorSpace) *Model {
	m := &Model{colorSpace: colorSpace}
	if p != nil {
		m.palette = *p
	} else {
		m.palette = DefaultCube(colorSpace)
	}
	return m
}

// Palette returns the underlying palette.
func (m *Model) Palette() Palette { return m.palette }

// ColorSpace returns the color space entries are interpreted in.
func (m *Model) ColorSpace() ColorSpace { return m.colorSpace }

// ToLinearRGB converts palette index idx to normalized linear-RGB
// components in [0,1].
func (m *Model) ToLinearRGB(idx byte) (r, g, b float64) {
	e := m.palette.Entries[idx]
	r, g, b = byteToUnit(e.R), byteToUnit(e.G), byteToUnit(e.B)
	if m.colorSpace == ColorSpaceSRGB {
		r, g, b = srgbToLinear(r), srgbToLinear(g), srgbToLinear(b)
	}
	return
}

// AlphaToUnit converts a raw alpha sample of the given bit depth to a
// normalized [0,1] value. alphaBits == 0 always yields full opacity.
func AlphaToUnit(raw byte, alphaBits int) float64 {
	if alphaBits == 0 {
		return 1.0
	}
	max := float64(uint32(1)<<uint(alphaBits) - 1)
	return float64(raw) / max
}

// UnitToAlpha is the inverse of AlphaToUnit, rounding to the nearest
// representable sample.
func UnitToAlpha(v float64, alphaBits int) byte {
	if alphaBits == 0 {
		return 0
	}
	max := float64(uint32(1)<<uint(alphaBits) - 1)
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return byte(max)
	}
	return byte(math.Round(v * max))
}

// ensureCache lazily builds the sRGB lookup cache on first use.
func (m *Model) ensureCache() {
	if m.cached {
		return
	}
	for i, e := range m.palette.Entries {
		r, g, b := byteToUnit(e.R), byteToUnit(e.G), byteToUnit(e.B)
		if m.colorSpace != ColorSpaceSRGB {
			r, g, b = linearToSRGB(r), linearToSRGB(g), linearToSRGB(b)
		}
		m.srgbCache[i] = [3]float64{r, g, b}
	}
	m.cached = true
}

// Quantize returns the palette index nearest to (r,g,b), components
// expressed in the model's own color space. Distance is measured in
// sRGB; ties favor the lowest index.
func (m *Model) Quantize(r, g, b float64) byte {
	sr, sg, sb := r, g, b
	if m.colorSpace != ColorSpaceSRGB {
		sr, sg, sb = linearToSRGB(r), linearToSRGB(g), linearToSRGB(b)
	}
	m.ensureCache()

	best := 0
	bestDist := math.Inf(1)
	for i, c := range m.srgbCache {
		dr := sr - c[0]
		dg := sg - c[1]
		db := sb - c[2]
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return byte(best)
}

// RescaleAlpha converts a raw alpha sample from a srcBits-deep band to a
// dstBits-deep band: round(sample * (2^dstBits-1) / (2^srcBits-1)). A
// missing source band (srcBits == 0) is treated as fully opaque.
func RescaleAlpha(sampleVal byte, srcBits, dstBits int) byte {
	if dstBits == 0 {
		return 0
	}
	if srcBits == 0 {
		return byte(uint32(1)<<uint(dstBits) - 1)
	}
	if srcBits == dstBits {
		return sampleVal
	}
	srcMax := float64(uint32(1)<<uint(srcBits) - 1)
	dstMax := float64(uint32(1)<<uint(dstBits) - 1)
	return byte(math.Round(float64(sampleVal) * dstMax / srcMax))
}
