package container

import (
	"errors"
	"testing"
)

func sampleHeader() Header {
	return Header{
		Version:    VersionBLP1,
		Encoding:   EncodingIndexed,
		AlphaBits:  8,
		Width:      4,
		Height:     4,
		HasMipmaps: true,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	buf := h.Bytes()
	if len(buf) != HeaderSize {
		t.Fatalf("Bytes() length = %d, want %d", len(buf), HeaderSize)
	}
	got, consumed, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if consumed != HeaderSize {
		t.Errorf("consumed = %d, want %d", consumed, HeaderSize)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestHeaderReservedIgnoredAndZeroedOnWrite(t *testing.T) {
	h := sampleHeader()
	buf := h.Bytes()
	PutLE32(buf[20:24], 0xdeadbeef)

	got, _, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got.Reserved != 0xdeadbeef {
		t.Fatalf("Reserved = %#x, want 0xdeadbeef (read-through)", got.Reserved)
	}

	rewritten := got.Bytes()
	if ReadLE32(rewritten[20:24]) != 0 {
		t.Errorf("reserved field not zeroed on write")
	}
}

func TestHeaderUnsupportedMagic(t *testing.T) {
	buf := sampleHeader().Bytes()
	copy(buf[0:4], "XYZW")
	_, _, err := ParseHeader(buf)
	if !errors.Is(err, ErrUnsupportedMagic) {
		t.Errorf("err = %v, want ErrUnsupportedMagic", err)
	}
}

func TestHeaderBLP2IsUnsupportedVersion(t *testing.T) {
	buf := sampleHeader().Bytes()
	copy(buf[0:4], "BLP2")
	_, _, err := ParseHeader(buf)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestHeaderAlphaBitsValidation(t *testing.T) {
	cases := []struct {
		encoding  EncodingKind
		alphaBits int
		wantErr   bool
	}{
		{EncodingIndexed, 0, false},
		{EncodingIndexed, 1, false},
		{EncodingIndexed, 4, false},
		{EncodingIndexed, 8, false},
		{EncodingIndexed, 2, true},
		{EncodingJpeg, 0, false},
		{EncodingJpeg, 8, false},
		{EncodingJpeg, 1, true},
		{EncodingJpeg, 4, true},
	}
	for _, c := range cases {
		h := sampleHeader()
		h.Encoding = c.encoding
		h.AlphaBits = c.alphaBits
		buf := h.Bytes()
		_, _, err := ParseHeader(buf)
		if c.wantErr && !errors.Is(err, ErrUnsupportedAlpha) {
			t.Errorf("encoding=%v alphaBits=%d: err = %v, want ErrUnsupportedAlpha", c.encoding, c.alphaBits, err)
		}
		if !c.wantErr && err != nil {
			t.Errorf("encoding=%v alphaBits=%d: unexpected err %v", c.encoding, c.alphaBits, err)
		}
	}
}

func TestHeaderTruncated(t *testing.T) {
	_, _, err := ParseHeader(make([]byte, HeaderSize-1))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestHeaderInvalidDimensions(t *testing.T) {
	h := sampleHeader()
	h.Width = 0
	buf := h.Bytes() // Bytes() doesn't validate; simulate a hand-crafted bad header.
	PutLE32(buf[12:16], 0)
	_, _, err := ParseHeader(buf)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("err = %v, want ErrInvalidDimensions", err)
	}
}

func TestMipmapCount(t *testing.T) {
	cases := []struct {
		w, h       int
		hasMipmaps bool
		want       int
	}{
		{1, 1, true, 1},
		{1, 1, false, 1},
		{4, 4, true, 3},  // levels: 4x4, 2x2, 1x1
		{4, 4, false, 1},
		{512, 512, true, 10},
		{5, 3, true, 3}, // max(5,3)=5 -> floor(log2(5))+1 = 3
	}
	for _, c := range cases {
		h := Header{Width: c.w, Height: c.h, HasMipmaps: c.hasMipmaps}
		if got := h.MipmapCount(); got != c.want {
			t.Errorf("MipmapCount(%dx%d, mip=%v) = %d, want %d", c.w, c.h, c.hasMipmaps, got, c.want)
		}
	}
}

func TestLevelDimensions(t *testing.T) {
	h := Header{Width: 9, Height: 5}
	cases := []struct {
		level  int
		w, h2 int
	}{
		{0, 9, 5},
		{1, 4, 2},
		{2, 2, 1},
		{3, 1, 1},
		{10, 1, 1},
	}
	for _, c := range cases {
		w, h2 := h.LevelDimensions(c.level)
		if w != c.w || h2 != c.h2 {
			t.Errorf("LevelDimensions(%d) = (%d,%d), want (%d,%d)", c.level, w, h2, c.w, c.h2)
		}
	}
}
