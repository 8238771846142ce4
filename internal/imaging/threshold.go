package imaging

import (
	"image"
	"image/color"
	"math"
)

// otsuThreshold binarizes a grayscale image using Otsu's between-class
// variance criterion, producing the inverted mask OCR engines expect
// (text white on black).
func otsuThreshold(src *image.Gray) *image.Gray {
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(x+minX, y+minY).Y]++
		}
	}

	total := w * h
	var sumAll float64
	for i := 0; i < 256; i++ {
		sumAll += float64(i) * float64(hist[i])
	}

	threshold := 0
	var bestVariance, sumBack float64
	weightBack := 0
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t) * float64(hist[t])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		variance := float64(weightBack) * float64(weightFore) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			threshold = t
		}
	}

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src.GrayAt(x+minX, y+minY).Y
			if int(v) > threshold {
				dst.SetGray(x+minX, y+minY, colorGray(0))
			} else {
				dst.SetGray(x+minX, y+minY, colorGray(255))
			}
		}
	}
	return dst
}

// adaptiveThreshold binarizes against a Gaussian-weighted local mean: a pixel
// becomes foreground (white) when it is darker than its neighborhood mean
// minus the constant c. Useful for unevenly lit labels where a single global
// threshold washes out.
func adaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	local := gaussianBlur(src, blockSize)
	w := src.Bounds().Dx()
	h := src.Bounds().Dy()
	minX, minY := src.Bounds().Min.X, src.Bounds().Min.Y

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(src.GrayAt(x+minX, y+minY).Y)
			mean := float64(local.GrayAt(x+minX, y+minY).Y)
			if v > mean-c {
				dst.SetGray(x+minX, y+minY, colorGray(0))
			} else {
				dst.SetGray(x+minX, y+minY, colorGray(255))
			}
		}
	}
	return dst
}

func grayValue(v float64) color.Gray {
	r := math.Round(v)
	if r < 0 {
		r = 0
	}
	if r > 255 {
		r = 255
	}
	return color.Gray{Y: uint8(r)}
}

func colorGray(v uint8) color.Gray {
	return color.Gray{Y: v}
}
