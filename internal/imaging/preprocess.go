/**
 * Image preprocessing for OCR accuracy
 *
 * Port of the label-photo normalization chain: upscale small inputs,
 * grayscale, smooth, equalize local contrast, binarize, clean up strokes,
 * deskew. The chain is deterministic for identical input bytes; deskew is
 * best-effort and falls back to the unrotated binary image.
 */

package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/logging"
)

const (
	// OCR works better on larger images; anything under this edge length is
	// upscaled before the rest of the chain runs.
	minOCRDimension = 300

	// Images below this edge length are rejected outright.
	minValidDimension = 50

	// 50MB upload ceiling.
	maxValidFileSize = 50 * 1024 * 1024
)

// Preprocessor normalizes raw label photos for OCR
type Preprocessor struct {
	logger *logging.Logger
}

// NewPreprocessor creates a preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		logger: logging.NewLogger("Preprocessor"),
	}
}

// LoadImage decodes an image file. Unreadable or corrupt input yields an
// IMAGE_READ_FAILED error that aborts the whole check.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewImageReadError(path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewImageReadError(path, err)
	}
	return img, nil
}

// ValidationInfo describes an input image that passed validation
type ValidationInfo struct {
	Width    int
	Height   int
	FileSize int64
}

// Validate checks whether an image file is suitable for OCR processing.
func Validate(path string) (*ValidationInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewImageReadError(path, err)
	}
	if info.Size() > maxValidFileSize {
		return nil, apperrors.NewImageReadError(path, fmt.Errorf("file too large: %d bytes", info.Size()))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewImageReadError(path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, apperrors.NewImageReadError(path, err)
	}
	if cfg.Width < minValidDimension || cfg.Height < minValidDimension {
		return nil, apperrors.NewImageReadError(path,
			fmt.Errorf("image too small for OCR: %dx%d", cfg.Width, cfg.Height))
	}

	return &ValidationInfo{Width: cfg.Width, Height: cfg.Height, FileSize: info.Size()}, nil
}

// Preprocess runs the full normalization chain and returns the binarized,
// deskewed result.
func (p *Preprocessor) Preprocess(img image.Image) *image.Gray {
	img = upscaleIfSmall(img)

	gray := toGray(img)
	blurred := gaussianBlur(gray, 3)
	enhanced := clahe(blurred, 2.0, 8)

	// Otsu holds up better than the adaptive map on label text, which tends
	// to be high-contrast print over a single background.
	binary := otsuThreshold(enhanced)

	kernel := 2
	binary = morphClose(binary, kernel)
	binary = morphOpen(binary, kernel)

	return p.deskew(binary)
}

// PreprocessFile reads srcPath, preprocesses it and writes the binarized
// result to dstPath as PNG.
func (p *Preprocessor) PreprocessFile(srcPath, dstPath string) error {
	img, err := LoadImage(srcPath)
	if err != nil {
		return err
	}

	processed := p.Preprocess(img)

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create preprocessed image: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, processed); err != nil {
		return fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	return nil
}

// upscaleIfSmall enlarges images with either dimension under 300px using
// Catmull-Rom interpolation. The scale factor is at least 2.0.
func upscaleIfSmall(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= minOCRDimension && h >= minOCRDimension {
		return img
	}

	factor := 2.0
	if f := float64(minOCRDimension) / float64(h); f > factor {
		factor = f
	}
	if f := float64(minOCRDimension) / float64(w); f > factor {
		factor = f
	}

	nw := int(float64(w) * factor)
	nh := int(float64(h) * factor)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
