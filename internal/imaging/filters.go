package imaging

import (
	"image"
	"math"
)

// gaussianKernel builds a normalized 1D Gaussian kernel for a given odd size.
// Sigma follows the usual size-derived default: 0.3*((ksize-1)*0.5 - 1) + 0.8.
func gaussianKernel(ksize int) []float64 {
	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	half := ksize / 2
	kernel := make([]float64, ksize)
	var sum float64
	for i := 0; i < ksize; i++ {
		x := float64(i - half)
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian filter with edge-replicated
// borders.
func gaussianBlur(src *image.Gray, ksize int) *image.Gray {
	kernel := gaussianKernel(ksize)
	half := ksize / 2
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()

	// Horizontal pass.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sx := clampInt(x+k, 0, w-1)
				acc += kernel[k+half] * float64(src.GrayAt(sx, y).Y)
			}
			tmp[y*w+x] = acc
		}
	}

	// Vertical pass.
	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -half; k <= half; k++ {
				sy := clampInt(y+k, 0, h-1)
				acc += kernel[k+half] * tmp[sy*w+x]
			}
			dst.SetGray(x+src.Bounds().Min.X, y+src.Bounds().Min.Y, grayValue(acc))
		}
	}
	return dst
}

// clahe performs contrast-limited adaptive histogram equalization over a
// gridSize x gridSize tile grid, bilinearly blending the per-tile lookup
// tables to avoid tile seams.
func clahe(src *image.Gray, clipLimit float64, gridSize int) *image.Gray {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	if w == 0 || h == 0 {
		return src
	}

	tileW := (w + gridSize - 1) / gridSize
	tileH := (h + gridSize - 1) / gridSize

	// Build one clipped-equalization LUT per tile.
	luts := make([][]uint8, gridSize*gridSize)
	for ty := 0; ty < gridSize; ty++ {
		for tx := 0; tx < gridSize; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)
			luts[ty*gridSize+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := clampInt(int(math.Floor(fy)), 0, gridSize-1)
		ty1 := clampInt(ty0+1, 0, gridSize-1)
		wy := fy - math.Floor(fy)
		if fy < 0 {
			wy = 0
		}

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := clampInt(int(math.Floor(fx)), 0, gridSize-1)
			tx1 := clampInt(tx0+1, 0, gridSize-1)
			wx := fx - math.Floor(fx)
			if fx < 0 {
				wx = 0
			}

			v := src.GrayAt(x+src.Bounds().Min.X, y+src.Bounds().Min.Y).Y
			top := (1-wx)*float64(luts[ty0*gridSize+tx0][v]) + wx*float64(luts[ty0*gridSize+tx1][v])
			bot := (1-wx)*float64(luts[ty1*gridSize+tx0][v]) + wx*float64(luts[ty1*gridSize+tx1][v])
			dst.SetGray(x+src.Bounds().Min.X, y+src.Bounds().Min.Y, grayValue((1-wy)*top+wy*bot))
		}
	}
	return dst
}

// tileLUT computes the clipped-histogram equalization mapping for one tile.
func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) []uint8 {
	lut := make([]uint8, 256)
	area := (x1 - x0) * (y1 - y0)
	if area <= 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	var hist [256]int
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(x+minX, y+minY).Y]++
		}
	}

	// Clip the histogram and redistribute the excess uniformly.
	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := 0; i < 256; i++ {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	share := excess / 256
	rem := excess % 256
	for i := 0; i < 256; i++ {
		hist[i] += share
		if i < rem {
			hist[i]++
		}
	}

	scale := 255.0 / float64(area)
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = grayValue(float64(cum) * scale).Y
	}
	return lut
}

// morphClose merges broken strokes: dilate then erode with a square kernel.
func morphClose(src *image.Gray, ksize int) *image.Gray {
	return erode(dilate(src, ksize), ksize)
}

// morphOpen removes speckle: erode then dilate with a square kernel.
func morphOpen(src *image.Gray, ksize int) *image.Gray {
	return dilate(erode(src, ksize), ksize)
}

func dilate(src *image.Gray, ksize int) *image.Gray {
	return morphApply(src, ksize, func(a, b uint8) uint8 {
		if a > b {
			return a
		}
		return b
	}, 0)
}

func erode(src *image.Gray, ksize int) *image.Gray {
	return morphApply(src, ksize, func(a, b uint8) uint8 {
		if a < b {
			return a
		}
		return b
	}, 255)
}

func morphApply(src *image.Gray, ksize int, pick func(a, b uint8) uint8, init uint8) *image.Gray {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := init
			for dy := 0; dy < ksize; dy++ {
				for dx := 0; dx < ksize; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sy := clampInt(y+dy, 0, h-1)
					v = pick(v, src.GrayAt(sx+minX, sy+minY).Y)
				}
			}
			dst.SetGray(x+minX, y+minY, colorGray(v))
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
