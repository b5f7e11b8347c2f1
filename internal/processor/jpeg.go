package processor

import (
	"fmt"
	"image"
	"image/color"

	pkgerrors "github.com/pkg/errors"

	"github.com/gowc3/blp/internal/container"
	"github.com/gowc3/blp/internal/jpegcodec"
	"github.com/gowc3/blp/internal/pool"
	"github.com/gowc3/blp/warn"
)

// JpegProcessor serializes/deserializes the shared JPEG header prelude,
// splits/joins per-mipmap JPEG tails, and performs the BGRA<->RGBA band
// reorder and deep alpha check.
type JpegProcessor struct {
	codec        jpegcodec.Codec
	alphaBits    int
	quality      float64 // caller-facing quality in [0,1]; default 0.9
	sharedHeader []byte
}

var _ Processor = (*JpegProcessor)(nil)

// NewJpegProcessor constructs a processor over the given external JPEG
// codec.
func NewJpegProcessor(codec jpegcodec.Codec, alphaBits int, quality float64) *JpegProcessor {
	if quality <= 0 {
		quality = 0.9
	}
	return &JpegProcessor{codec: codec, alphaBits: alphaBits, quality: quality}
}

func (p *JpegProcessor) Kind() Kind { return KindJpeg }

func (p *JpegProcessor) SharedHeader() []byte { return p.sharedHeader }

// ReadPrelude consumes the 4-byte length-prefixed shared JPEG header.
func (p *JpegProcessor) ReadPrelude(data []byte, sink warn.Sink) (int, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: jpeg shared header length", container.ErrTruncated)
	}
	n := container.ReadLE32(data[0:4])
	if uint64(4)+uint64(n) > uint64(len(data)) {
		return 0, fmt.Errorf("%w: jpeg shared header declares %d bytes past end of stream", container.ErrTruncated, n)
	}
	p.sharedHeader = append([]byte(nil), data[4:4+n]...)
	if int(n) > container.MaxJpegSharedHeader {
		sink.Warn(warn.BadJpegHeaderWarning(int(n), container.MaxJpegSharedHeader))
	}
	return 4 + int(n), nil
}

// WritePrelude encodes the current shared header with its 4-byte length
// prefix.
func (p *JpegProcessor) WritePrelude() []byte {
	buf := make([]byte, 4+len(p.sharedHeader))
	container.PutLE32(buf[0:4], uint32(len(p.sharedHeader)))
	copy(buf[4:], p.sharedHeader)
	return buf
}

func (p *JpegProcessor) Decode(level, w, h int, payload []byte, sink warn.Sink, deepCheck bool) (image.Image, error) {
	full := make([]byte, 0, len(p.sharedHeader)+len(payload))
	full = append(full, p.sharedHeader...)
	full = append(full, payload...)

	bgra, dw, dh, err := p.codec.Decode(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalJpeg, pkgerrors.Wrap(err, "external jpeg decode"))
	}

	if dw != w || dh != h {
		sink.Warn(warn.BadMipmapDimensionWarning(level, dw, dh, w, h))
		bgra = cropOrPadRGBA(bgra, dw, dh, w, h)
		dw, dh = w, h
	}

	rgba := pool.Get(len(bgra))
	defer pool.Put(rgba)
	swapRedBlue(bgra, rgba)

	if p.alphaBits == 0 {
		if deepCheck {
			nonOpaque := 0
			for i := 3; i < len(rgba); i += 4 {
				if rgba[i] != 0xFF {
					nonOpaque++
				}
			}
			if nonOpaque > 0 {
				sink.Warn(warn.BadPixelAlphaWarning(level, nonOpaque, dw*dh))
			}
		}
		for i := 3; i < len(rgba); i += 4 {
			rgba[i] = 0xFF
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	copy(img.Pix, rgba)
	return img, nil
}

func (p *JpegProcessor) Encode(levels []image.Image, opts EncodeOptions) ([][]byte, error) {
	quality := opts.JpegQuality
	if quality <= 0 {
		quality = p.quality
	}
	qualityPct := int(quality*100 + 0.5)
	if qualityPct <= 0 {
		qualityPct = 90
	}

	full := make([][]byte, len(levels))
	for i, img := range levels {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		rgba := imageToRGBABytes(img, w, h, p.alphaBits)
		bgra := pool.Get(len(rgba))
		swapRedBlue(rgba, bgra)

		data, err := p.codec.Encode(bgra, w, h, qualityPct)
		pool.Put(bgra)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExternalJpeg, pkgerrors.Wrap(err, "external jpeg encode"))
		}
		full[i] = data
	}

	prefix := longestCommonPrefix(full)
	if len(prefix) > container.MaxJpegSharedHeader {
		prefix = prefix[:container.MaxJpegSharedHeader]
	}
	// Every level keeps at least one payload byte: a zero-size directory
	// entry reads back as a missing level. This matters for a single
	// level, whose common prefix is otherwise the whole stream.
	for _, data := range full {
		if len(data) > 0 && len(prefix) >= len(data) {
			prefix = prefix[:len(data)-1]
		}
	}
	p.sharedHeader = prefix

	out := make([][]byte, len(levels))
	for i, data := range full {
		out[i] = append([]byte(nil), data[len(prefix):]...)
	}
	return out, nil
}

// swapRedBlue writes the [2,1,0,3] band permutation of src into dst
// (self-inverse: the same function converts BGRA<->RGBA). It does not
// work in place: dst must not alias src.
func swapRedBlue(src, dst []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}

// cropOrPadRGBA adjusts a tightly packed 4-band buffer from (srcW,srcH)
// to (dstW,dstH), padding any new area with transparent black.
func cropOrPadRGBA(src []byte, srcW, srcH, dstW, dstH int) []byte {
	dst := make([]byte, dstW*dstH*4)
	copyW, copyH := srcW, srcH
	if dstW < copyW {
		copyW = dstW
	}
	if dstH < copyH {
		copyH = dstH
	}
	for y := 0; y < copyH; y++ {
		srcOff := y * srcW * 4
		dstOff := y * dstW * 4
		copy(dst[dstOff:dstOff+copyW*4], src[srcOff:srcOff+copyW*4])
	}
	return dst
}

// imageToRGBABytes normalizes an arbitrary image.Image to a tightly
// packed 8-bit RGBA buffer, forcing full opacity when alphaBits == 0.
// Conversion goes through color.NRGBAModel rather than the raw RGBA()
// accessor so 8-bit components survive without an alpha-premultiply
// round trip.
func imageToRGBABytes(img image.Image, w, h, alphaBits int) []byte {
	out := make([]byte, w*h*4)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := (y*w + x) * 4
			out[off] = c.R
			out[off+1] = c.G
			out[off+2] = c.B
			if alphaBits == 0 {
				out[off+3] = 0xFF
			} else {
				out[off+3] = c.A
			}
		}
	}
	return out
}

// longestCommonPrefix returns the longest byte prefix shared by every
// buffer in bufs (empty if bufs is empty or any buffer is empty).
func longestCommonPrefix(bufs [][]byte) []byte {
	if len(bufs) == 0 {
		return nil
	}
	shortest := bufs[0]
	for _, b := range bufs[1:] {
		if len(b) < len(shortest) {
			shortest = b
		}
	}
	n := len(shortest)
	for _, b := range bufs {
		for i := 0; i < n; i++ {
			if b[i] != shortest[i] {
				n = i
				break
			}
		}
	}
	return append([]byte(nil), shortest[:n]...)
}
