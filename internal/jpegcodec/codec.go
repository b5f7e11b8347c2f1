// Package jpegcodec abstracts the external JPEG codec collaborator
// behind a narrow interface so the JPEG processor never talks to
// image/jpeg directly. The format's JPEG payloads are BGRA order (the
// reverse of image.NRGBA), so the interface is BGRA-native: callers that
// want RGBA do the band swap themselves, matching the processor's
// [2,1,0,3] permutation step.
package jpegcodec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/pkg/errors"

	"github.com/gowc3/blp/internal/pool"
)

// Codec decodes and encodes single JPEG frames as flat, tightly packed
// BGRA buffers. It is a deliberately external seam: a caller may
// substitute a codec with real alpha support, a different chroma
// subsampling policy, or hardware acceleration.
type Codec interface {
	// Decode parses a complete JPEG bytestream and returns its pixels as
	// BGRA, plus the image's native width and height.
	Decode(data []byte) (pix []byte, w, h int, err error)

	// Encode compresses a tightly packed BGRA buffer of the given
	// dimensions into a JPEG bytestream.
	Encode(pix []byte, w, h int, quality int) ([]byte, error)
}

// StdlibCodec adapts image/jpeg to the Codec interface. It has two known
// limitations relative to a full-featured codec: decoded alpha is always
// reported opaque (image/jpeg carries no alpha channel) and encode
// silently drops whatever alpha the caller supplied. The JPEG payload is
// the only place a mipmap's alpha is stored, so with this codec the
// alpha of an alphaBits == 8 JPEG stream does not survive: it decodes
// fully opaque.
type StdlibCodec struct{}

var _ Codec = StdlibCodec{}

func (StdlibCodec) Decode(data []byte) ([]byte, int, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, errors.WithStack(err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*4)

	switch src := img.(type) {
	case *image.YCbCr:
		decodeYCbCr(src, pix)
	default:
		decodeGeneric(img, b, pix)
	}
	return pix, w, h, nil
}

func decodeGeneric(img image.Image, b image.Rectangle, pix []byte) {
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			off := ((y-b.Min.Y)*w + (x - b.Min.X)) * 4
			pix[off] = byte(bl >> 8)
			pix[off+1] = byte(g >> 8)
			pix[off+2] = byte(r >> 8)
			pix[off+3] = 0xFF
		}
	}
}

// decodeYCbCr converts the decoder's native planar output directly from
// its Y/Cb/Cr planes, skipping the per-pixel color.Color boxing the
// generic path pays.
func decodeYCbCr(img *image.YCbCr, pix []byte) {
	b := img.Bounds()
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			yi := img.YOffset(x, y)
			ci := img.COffset(x, y)
			r, g, bl := color.YCbCrToRGB(img.Y[yi], img.Cb[ci], img.Cr[ci])
			off := ((y-b.Min.Y)*w + (x - b.Min.X)) * 4
			pix[off] = bl
			pix[off+1] = g
			pix[off+2] = r
			pix[off+3] = 0xFF
		}
	}
}

func (StdlibCodec) Encode(pix []byte, w, h int, quality int) ([]byte, error) {
	if len(pix) < w*h*4 {
		return nil, errors.Errorf("jpegcodec: buffer too small for %dx%d", w, h)
	}
	img := &image.NRGBA{
		Pix:    pool.Get(w * h * 4),
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	defer pool.Put(img.Pix)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			o := img.PixOffset(x, y)
			img.Pix[o+0] = pix[off+2] // R <- B-slot source
			img.Pix[o+1] = pix[off+1] // G
			img.Pix[o+2] = pix[off+0] // B <- R-slot source
			img.Pix[o+3] = 0xFF
		}
	}
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}
