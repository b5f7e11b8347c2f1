package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gowc3/blp/internal/container"
	"github.com/gowc3/blp/internal/palette"
	"github.com/gowc3/blp/internal/sample"
	"github.com/gowc3/blp/warn"
)

// IndexedImage adapts a [sample.Raster] and its [palette.Model] to
// image.Image, the format the rest of the codec and every consumer of
// the public Decoder API speaks. Colors are returned directly in the
// model's linear components; no display gamma correction is applied,
// since the format itself never specifies one for presentation.
type IndexedImage struct {
	Raster *sample.Raster
	Model  *palette.Model
}

func (img *IndexedImage) ColorModel() color.Model { return color.NRGBA64Model }

func (img *IndexedImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Raster.Layout.Width, img.Raster.Layout.Height)
}

func (img *IndexedImage) At(x, y int) color.Color {
	idx, err := img.Raster.GetIndex(x, y)
	if err != nil {
		return color.NRGBA64{}
	}
	r, g, b := img.Model.ToLinearRGB(idx)
	a := 1.0
	if img.Raster.Layout.AlphaBits > 0 {
		if av, err := img.Raster.GetAlpha(x, y); err == nil {
			a = palette.AlphaToUnit(av, img.Raster.Layout.AlphaBits)
		}
	}
	return color.NRGBA64{
		R: uint16(r * 65535),
		G: uint16(g * 65535),
		B: uint16(b * 65535),
		A: uint16(a * 65535),
	}
}

// IndexedProcessor serializes/deserializes the 256-word palette block
// and decodes/encodes indexed mipmap byte blobs.
type IndexedProcessor struct {
	rawWords  [256]uint32 // preserved verbatim across round trips
	model     *palette.Model
	alphaBits int
}

var _ Processor = (*IndexedProcessor)(nil)

// NewIndexedProcessor builds a processor with the universal fallback
// palette; used for fresh writes when the caller supplies no palette.
func NewIndexedProcessor(alphaBits int) *IndexedProcessor {
	model := palette.NewModel(nil, palette.ColorSpaceLinear)
	return &IndexedProcessor{rawWords: model.Palette().Words(), model: model, alphaBits: alphaBits}
}

// NewIndexedProcessorWithPalette builds a processor over a caller-supplied
// palette.
func NewIndexedProcessorWithPalette(p palette.Palette, cs palette.ColorSpace, alphaBits int) *IndexedProcessor {
	model := palette.NewModel(&p, cs)
	return &IndexedProcessor{rawWords: p.Words(), model: model, alphaBits: alphaBits}
}

func (p *IndexedProcessor) Kind() Kind { return KindIndexed }

func (p *IndexedProcessor) Palette() palette.Palette { return p.model.Palette() }

// ReadPrelude consumes the fixed 1024-byte palette block.
func (p *IndexedProcessor) ReadPrelude(data []byte, _ warn.Sink) (int, error) {
	if len(data) < container.IndexedPaletteSize {
		return 0, fmt.Errorf("%w: palette prelude has %d bytes, need %d", container.ErrTruncated, len(data), container.IndexedPaletteSize)
	}
	var words [256]uint32
	for i := 0; i < 256; i++ {
		words[i] = container.ReadLE32(data[i*4 : i*4+4])
	}
	pal, err := palette.FromWords(words[:])
	if err != nil {
		return 0, err
	}
	p.rawWords = words
	p.model = palette.NewModel(&pal, palette.ColorSpaceLinear)
	return container.IndexedPaletteSize, nil
}

// WritePrelude emits the stored raw words verbatim, preserving whatever
// reserved high bytes the source palette carried.
func (p *IndexedProcessor) WritePrelude() []byte {
	buf := make([]byte, container.IndexedPaletteSize)
	for i, w := range p.rawWords {
		container.PutLE32(buf[i*4:i*4+4], w)
	}
	return buf
}

func (p *IndexedProcessor) Decode(level, w, h int, payload []byte, sink warn.Sink, _ bool) (image.Image, error) {
	layout := sample.Layout{Width: w, Height: h, AlphaBits: p.alphaBits}
	expected := layout.BufferSize()
	buf := payload
	if len(buf) != expected {
		sink.Warn(warn.BadDataBufferWarning(level, len(buf), expected))
		fixed := make([]byte, expected)
		copy(fixed, buf)
		buf = fixed
	}
	raster := sample.Wrap(layout, buf)
	return &IndexedImage{Raster: raster, Model: p.model}, nil
}

func (p *IndexedProcessor) Encode(levels []image.Image, _ EncodeOptions) ([][]byte, error) {
	out := make([][]byte, len(levels))
	for i, img := range levels {
		b := img.Bounds()
		want := sample.Layout{Width: b.Dx(), Height: b.Dy(), AlphaBits: p.alphaBits}
		if ii, ok := img.(*IndexedImage); ok && ii.Raster.Layout.CompatibleWith(want) {
			out[i] = append([]byte(nil), ii.Raster.Pix...)
			continue
		}
		raster, err := p.prepareRasterToEncode(img)
		if err != nil {
			return nil, err
		}
		out[i] = raster.Pix
	}
	return out, nil
}

// prepareRasterToEncode rebuilds a compliant packed raster from an
// arbitrary image.Image: indexed sources copy their index band directly
// (rescaling alpha when bit depths differ), paletted sources have their
// palette adopted, and anything else is quantized against the current
// palette.
func (p *IndexedProcessor) prepareRasterToEncode(img image.Image) (*sample.Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	layout := sample.Layout{Width: w, Height: h, AlphaBits: p.alphaBits}
	raster := sample.NewRaster(layout)

	switch src := img.(type) {
	case *IndexedImage:
		srcLayout := src.Raster.Layout
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx, _ := src.Raster.GetIndex(x, y)
				_ = raster.SetIndex(x, y, idx)
				if layout.AlphaBits == 0 {
					continue
				}
				var a byte
				if srcLayout.AlphaBits > 0 {
					sv, _ := src.Raster.GetAlpha(x, y)
					a = palette.RescaleAlpha(sv, srcLayout.AlphaBits, layout.AlphaBits)
				} else {
					a = palette.RescaleAlpha(0, 0, layout.AlphaBits)
				}
				_ = raster.SetAlpha(x, y, a)
			}
		}
		return raster, nil

	case *image.Paletted:
		pal, err := paletteFromColorPalette(src.Palette)
		if err != nil {
			return nil, err
		}
		p.rawWords = pal.Words()
		p.model = palette.NewModel(&pal, palette.ColorSpaceSRGB)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := src.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
				_ = raster.SetIndex(x, y, idx)
				if layout.AlphaBits == 0 {
					continue
				}
				_, _, _, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				_ = raster.SetAlpha(x, y, palette.UnitToAlpha(float64(a)/65535, layout.AlphaBits))
			}
		}
		return raster, nil

	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				idx := p.model.Quantize(float64(r)/65535, float64(g)/65535, float64(bl)/65535)
				_ = raster.SetIndex(x, y, idx)
				if layout.AlphaBits == 0 {
					continue
				}
				_ = raster.SetAlpha(x, y, palette.UnitToAlpha(float64(a)/65535, layout.AlphaBits))
			}
		}
		return raster, nil
	}
}

func paletteFromColorPalette(cp color.Palette) (palette.Palette, error) {
	words := make([]uint32, len(cp))
	for i, c := range cp {
		r, g, b, _ := c.RGBA()
		words[i] = uint32(byte(r>>8)) | uint32(byte(g>>8))<<8 | uint32(byte(b>>8))<<16
	}
	return palette.FromWords(words)
}
