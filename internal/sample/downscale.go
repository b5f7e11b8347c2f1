package sample

// DownscaleRGBA performs box-filter area averaging of a tightly packed
// (stride == width*4) RGBA buffer from (srcW,srcH) to (dstW,dstH). Used
// both for the writer's dimension-optimization step and for generating
// the auto-mipmap pyramid, which the driver computes by halving
// successively rather than scaling directly to each target size.
func DownscaleRGBA(src []byte, srcW, srcH, dstW, dstH int) []byte {
	dst := make([]byte, dstW*dstH*4)
	if dstW <= 0 || dstH <= 0 {
		return dst
	}

	for dy := 0; dy < dstH; dy++ {
		y0 := dy * srcH / dstH
		y1 := (dy + 1) * srcH / dstH
		if y1 <= y0 {
			y1 = y0 + 1
		}
		if y1 > srcH {
			y1 = srcH
		}
		for dx := 0; dx < dstW; dx++ {
			x0 := dx * srcW / dstW
			x1 := (dx + 1) * srcW / dstW
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if x1 > srcW {
				x1 = srcW
			}

			var sumR, sumG, sumB, sumA, count uint64
			for y := y0; y < y1; y++ {
				rowOff := y * srcW * 4
				for x := x0; x < x1; x++ {
					off := rowOff + x*4
					sumR += uint64(src[off])
					sumG += uint64(src[off+1])
					sumB += uint64(src[off+2])
					sumA += uint64(src[off+3])
					count++
				}
			}
			if count == 0 {
				count = 1
			}
			dstOff := (dy*dstW + dx) * 4
			dst[dstOff] = byte(sumR / count)
			dst[dstOff+1] = byte(sumG / count)
			dst[dstOff+2] = byte(sumB / count)
			dst[dstOff+3] = byte(sumA / count)
		}
	}
	return dst
}

// HalveRGBA downscales src from (w,h) to (max(w/2,1), max(h/2,1)) by area
// averaging, the single-step operation the auto-mipmap pyramid repeats at
// each level.
func HalveRGBA(src []byte, w, h int) (dst []byte, dstW, dstH int) {
	dstW = w / 2
	if dstW < 1 {
		dstW = 1
	}
	dstH = h / 2
	if dstH < 1 {
		dstH = 1
	}
	return DownscaleRGBA(src, w, h, dstW, dstH), dstW, dstH
}
