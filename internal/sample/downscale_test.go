package sample

import "testing"

func TestHalveRGBAEvenDimensions(t *testing.T) {
	// 2x2 solid red on top row, solid blue bottom row -> averages to a
	// single purple-ish pixel at 1x1.
	src := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	dst, w, h := HalveRGBA(src, 2, 2)
	if w != 1 || h != 1 {
		t.Fatalf("dims = %dx%d, want 1x1", w, h)
	}
	if dst[0] != 127 || dst[2] != 127 || dst[3] != 255 {
		t.Errorf("pixel = %v, want avg of red/blue", dst)
	}
}

func TestHalveRGBAOddDimensionFloorsToOne(t *testing.T) {
	src := make([]byte, 1*3*4)
	dst, w, h := HalveRGBA(src, 1, 3)
	if w != 1 || h != 1 {
		t.Fatalf("dims = %dx%d, want 1x1", w, h)
	}
	if len(dst) != 4 {
		t.Errorf("len(dst) = %d, want 4", len(dst))
	}
}

func TestDownscaleRGBAIdentity(t *testing.T) {
	src := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	dst := DownscaleRGBA(src, 2, 1, 2, 1)
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("identity downscale mismatch at %d: got %d want %d", i, dst[i], src[i])
		}
	}
}
