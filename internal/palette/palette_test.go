package palette

import "testing"

func TestRGB24WordRoundTrip(t *testing.T) {
	c := RGB24{R: 0x11, G: 0x22, B: 0x33}
	w := c.Word()
	if w != 0x00332211 {
		t.Fatalf("Word() = %#08x, want 0x00332211", w)
	}
	if got := RGB24FromWord(w); got != c {
		t.Fatalf("RGB24FromWord(%#08x) = %v, want %v", w, got, c)
	}
}

func TestRGB24FromWordIgnoresReservedByte(t *testing.T) {
	got := RGB24FromWord(0xFF332211)
	want := RGB24{R: 0x11, G: 0x22, B: 0x33}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFromWordsDecodesPrimaries(t *testing.T) {
	words := []uint32{0x000000FF, 0x0000FF00, 0x00FF0000, 0x00FFFFFF}
	p, err := FromWords(words)
	if err != nil {
		t.Fatalf("FromWords: %v", err)
	}
	want := []RGB24{
		{R: 0xFF, G: 0x00, B: 0x00},
		{R: 0x00, G: 0xFF, B: 0x00},
		{R: 0x00, G: 0x00, B: 0xFF},
		{R: 0xFF, G: 0xFF, B: 0xFF},
	}
	for i, w := range want {
		if p.Entries[i] != w {
			t.Errorf("Entries[%d] = %v, want %v", i, p.Entries[i], w)
		}
	}
	for i := 4; i < 256; i++ {
		if p.Entries[i] != (RGB24{}) {
			t.Errorf("Entries[%d] = %v, want zero-filled", i, p.Entries[i])
		}
	}
}

func TestFromWordsRejectsTooMany(t *testing.T) {
	words := make([]uint32, 257)
	if _, err := FromWords(words); err != ErrTooManyColors {
		t.Fatalf("err = %v, want ErrTooManyColors", err)
	}
}

func TestWordsRoundTrip(t *testing.T) {
	words := []uint32{0x00010203, 0x00040506}
	p, err := FromWords(words)
	if err != nil {
		t.Fatal(err)
	}
	out := p.Words()
	if out[0] != words[0] || out[1] != words[1] {
		t.Fatalf("Words() = %#08x %#08x, want %#08x %#08x", out[0], out[1], words[0], words[1])
	}
	for i := 2; i < 256; i++ {
		if out[i] != 0 {
			t.Errorf("Words()[%d] = %#08x, want 0", i, out[i])
		}
	}
}

// A palette with all 256 entries identical returns index 0 for any
// query color: ties break to the lowest index.
func TestUniformPaletteQuantizesToIndexZero(t *testing.T) {
	var p Palette
	for i := range p.Entries {
		p.Entries[i] = RGB24{R: 0x80, G: 0x80, B: 0x80}
	}
	m := NewModel(&p, ColorSpaceSRGB)
	for _, c := range [][3]float64{{0, 0, 0}, {1, 1, 1}, {0.3, 0.6, 0.9}} {
		if got := m.Quantize(c[0], c[1], c[2]); got != 0 {
			t.Errorf("Quantize(%v) = %d, want 0", c, got)
		}
	}
}

func TestQuantizeExactMatch(t *testing.T) {
	words := []uint32{0x000000FF, 0x0000FF00, 0x00FF0000}
	p, _ := FromWords(words)
	m := NewModel(&p, ColorSpaceSRGB)
	// index 1 is pure green (0x00FF00 -> R=0,G=255,B=0).
	if got := m.Quantize(0, 1, 0); got != 1 {
		t.Errorf("Quantize(green) = %d, want 1", got)
	}
}

func TestToLinearRGBSRGBConversion(t *testing.T) {
	words := []uint32{0x00000000}
	p, _ := FromWords(words)
	p.Entries[0] = RGB24{R: 255, G: 255, B: 255}
	m := NewModel(&p, ColorSpaceSRGB)
	r, g, b := m.ToLinearRGB(0)
	if r != 1 || g != 1 || b != 1 {
		t.Errorf("ToLinearRGB(white) = (%v,%v,%v), want (1,1,1)", r, g, b)
	}

	mLin := NewModel(&p, ColorSpaceLinear)
	r, g, b = mLin.ToLinearRGB(0)
	if r != 1 || g != 1 || b != 1 {
		t.Errorf("ToLinearRGB(white, linear space) = (%v,%v,%v), want (1,1,1)", r, g, b)
	}
}

func TestDefaultCubeHasDistinctEntries(t *testing.T) {
	cube := DefaultCube(ColorSpaceSRGB)
	if cube.Entries[0] == cube.Entries[255] {
		t.Error("expected first and last cube entries to differ")
	}
	// the first corner entry should be black.
	if cube.Entries[0] != (RGB24{0, 0, 0}) {
		t.Errorf("cube[0] = %v, want black", cube.Entries[0])
	}
}

func TestNewModelNilPaletteUsesDefaultCube(t *testing.T) {
	m := NewModel(nil, ColorSpaceLinear)
	want := DefaultCube(ColorSpaceLinear)
	if m.Palette() != want {
		t.Error("NewModel(nil, ...) did not substitute the default cube")
	}
}

func TestAlphaUnitRoundTrip(t *testing.T) {
	for _, bits := range []int{1, 4, 8} {
		max := byte(1<<uint(bits)) - 1
		for s := byte(0); ; s++ {
			v := AlphaToUnit(s, bits)
			got := UnitToAlpha(v, bits)
			if got != s {
				t.Errorf("bits=%d s=%d: round trip = %d", bits, s, got)
			}
			if s == max {
				break
			}
		}
	}
}

func TestAlphaToUnitZeroBitsIsOpaque(t *testing.T) {
	if v := AlphaToUnit(0, 0); v != 1.0 {
		t.Errorf("AlphaToUnit(0,0) = %v, want 1.0", v)
	}
}

func TestRescaleAlphaIdentity(t *testing.T) {
	for bits := 1; bits <= 8; bits++ {
		if got := RescaleAlpha(3, bits, bits); got != 3 {
			t.Errorf("RescaleAlpha identity bits=%d: got %d, want 3", bits, got)
		}
	}
}

func TestRescaleAlphaUpAndDown(t *testing.T) {
	// 1-bit fully-on (1) -> 8-bit should be 255.
	if got := RescaleAlpha(1, 1, 8); got != 255 {
		t.Errorf("RescaleAlpha(1,1,8) = %d, want 255", got)
	}
	// 8-bit 255 -> 1-bit should be 1.
	if got := RescaleAlpha(255, 8, 1); got != 1 {
		t.Errorf("RescaleAlpha(255,8,1) = %d, want 1", got)
	}
	// 8-bit 0 -> 4-bit should be 0.
	if got := RescaleAlpha(0, 8, 4); got != 0 {
		t.Errorf("RescaleAlpha(0,8,4) = %d, want 0", got)
	}
}

func TestRescaleAlphaMissingSourceIsOpaque(t *testing.T) {
	if got := RescaleAlpha(0, 0, 4); got != 0x0F {
		t.Errorf("RescaleAlpha(0,0,4) = %#x, want 0xf", got)
	}
}

func TestRescaleAlphaZeroDestIsZero(t *testing.T) {
	if got := RescaleAlpha(255, 8, 0); got != 0 {
		t.Errorf("RescaleAlpha(.,8,0) = %d, want 0", got)
	}
}
