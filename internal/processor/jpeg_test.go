package processor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/gowc3/blp/warn"
)

// fakeCodec is a deterministic stand-in for the external JPEG codec: it
// "compresses" by prefixing a fixed marker and "decompresses" by
// stripping it, so tests can exercise the processor's header-splitting
// and band-permutation logic without a real JPEG library round trip.
type fakeCodec struct {
	marker []byte
	failOn func(op string) bool
}

func (f fakeCodec) Decode(data []byte) ([]byte, int, int, error) {
	if f.failOn != nil && f.failOn("decode") {
		return nil, 0, 0, errBoom
	}
	body := bytes.TrimPrefix(data, f.marker)
	// encode width/height in the first two bytes of body for this fake.
	w, h := int(body[0]), int(body[1])
	pix := append([]byte(nil), body[2:]...)
	return pix, w, h, nil
}

func (f fakeCodec) Encode(pix []byte, w, h int, _ int) ([]byte, error) {
	if f.failOn != nil && f.failOn("encode") {
		return nil, errBoom
	}
	out := append([]byte(nil), f.marker...)
	out = append(out, byte(w), byte(h))
	out = append(out, pix...)
	return out, nil
}

var errBoom = &testErr{"boom"}

type testErr struct{ s string }

func (e *testErr) Error() string { return e.s }

func solidImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestJpegEncodeDecodeRoundTrip(t *testing.T) {
	codec := fakeCodec{marker: []byte("JPEGHDR")}
	p := NewJpegProcessor(codec, 8, 0.9)

	img := solidImage(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	payloads, err := p.Encode([]image.Image{img}, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	prelude := p.WritePrelude()
	if len(prelude) < 4 {
		t.Fatal("prelude too short")
	}

	var warnings []warn.Warning
	decoded, err := p.Decode(0, 1, 1, payloads[0], warn.Collect(&warnings), true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	got := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 128}
	if got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestJpegSharedHeaderIsLongestCommonPrefix(t *testing.T) {
	codec := fakeCodec{marker: []byte("JPEGHDR")}
	p := NewJpegProcessor(codec, 0, 0.9)

	imgs := []image.Image{
		solidImage(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 255}),
		solidImage(1, 1, color.NRGBA{R: 4, G: 5, B: 6, A: 255}),
	}
	_, err := p.Encode(imgs, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Both streams start with the 7-byte marker then (w,h)=(1,1); the
	// pixel bytes differ, so the shared prefix is exactly marker+2.
	if len(p.sharedHeader) != len(codec.marker)+2 {
		t.Errorf("sharedHeader len = %d, want %d", len(p.sharedHeader), len(codec.marker)+2)
	}
}

func TestJpegDecodeDimensionMismatchWarnsAndPads(t *testing.T) {
	codec := fakeCodec{marker: []byte("H")}
	p := NewJpegProcessor(codec, 8, 0.9)
	p.sharedHeader = []byte("H")

	// fake-encode a 1x1 image but claim the level is 2x2.
	payload := []byte{1, 1, 10, 20, 30, 255}
	var warnings []warn.Warning
	img, err := p.Decode(1, 2, 2, payload, warn.Collect(&warnings), false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != warn.BadMipmapDimension {
		t.Fatalf("warnings = %v, want one BadMipmapDimension", warnings)
	}
	b := img.Bounds()
	if b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 2x2", b)
	}
	r, g, bl, a := img.At(1, 1).RGBA()
	if r != 0 || g != 0 || bl != 0 || a != 0 {
		t.Errorf("padded pixel = (%d,%d,%d,%d), want transparent black", r, g, bl, a)
	}
}

func TestJpegDeepAlphaCheckWarnsOnce(t *testing.T) {
	codec := fakeCodec{marker: []byte("H")}
	p := NewJpegProcessor(codec, 0, 0.9)
	p.sharedHeader = []byte("H")

	// alphaBits=0 (opaque-declared) but payload carries a non-opaque pixel.
	payload := []byte{1, 1, 10, 20, 30, 128}
	var warnings []warn.Warning
	img, err := p.Decode(0, 1, 1, payload, warn.Collect(&warnings), true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Kind != warn.BadPixelAlpha {
		t.Fatalf("warnings = %v, want one BadPixelAlpha", warnings)
	}
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0xFFFF {
		t.Errorf("alpha = %d, want fully opaque after forcing", a)
	}
}

func TestJpegDeepAlphaCheckSkippedWhenDisabled(t *testing.T) {
	codec := fakeCodec{marker: []byte("H")}
	p := NewJpegProcessor(codec, 0, 0.9)
	p.sharedHeader = []byte("H")

	payload := []byte{1, 1, 10, 20, 30, 128}
	var warnings []warn.Warning
	if _, err := p.Decode(0, 1, 1, payload, warn.Collect(&warnings), false); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none (deep check disabled)", warnings)
	}
}

func TestJpegHeaderOverSoftLimitWarns(t *testing.T) {
	p := NewJpegProcessor(fakeCodec{marker: []byte("H")}, 8, 0.9)
	big := make([]byte, 625)
	data := make([]byte, 4+len(big))
	data[0] = byte(len(big))
	data[1] = byte(len(big) >> 8)
	copy(data[4:], big)

	var warnings []warn.Warning
	n, err := p.ReadPrelude(data, warn.Collect(&warnings))
	if err != nil {
		t.Fatalf("ReadPrelude: %v", err)
	}
	if n != 4+625 {
		t.Fatalf("consumed = %d, want %d", n, 4+625)
	}
	if len(warnings) != 1 || warnings[0].Kind != warn.BadJpegHeader {
		t.Fatalf("warnings = %v, want one BadJpegHeader", warnings)
	}
}

func TestJpegHeaderAtSoftLimitDoesNotWarn(t *testing.T) {
	p := NewJpegProcessor(fakeCodec{marker: []byte("H")}, 8, 0.9)
	exact := make([]byte, 624)
	data := make([]byte, 4+len(exact))
	data[0] = byte(len(exact))
	data[1] = byte(len(exact) >> 8)
	copy(data[4:], exact)

	var warnings []warn.Warning
	if _, err := p.ReadPrelude(data, warn.Collect(&warnings)); err != nil {
		t.Fatalf("ReadPrelude: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none at exactly the soft limit", warnings)
	}
}

func TestSwapRedBlueIsSelfInverse(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	swapped := make([]byte, len(src))
	swapRedBlue(src, swapped)
	back := make([]byte, len(src))
	swapRedBlue(swapped, back)
	if string(back) != string(src) {
		t.Errorf("double swap = %v, want %v", back, src)
	}
}
