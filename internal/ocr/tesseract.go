/**
 * Tesseract recognizer - local, offline OCR
 *
 * One gosseract client per pass keeps the calls independent; reusing a
 * client across page segmentation modes leaks state between passes.
 */

package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

// TesseractRecognizer runs OCR passes through the local Tesseract library.
type TesseractRecognizer struct {
	language string
}

// NewTesseractRecognizer creates a recognizer for the given language
// ("eng" when empty).
func NewTesseractRecognizer(language string) *TesseractRecognizer {
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{language: language}
}

// NewTesseractEngine wires a Tesseract recognizer into a search engine.
func NewTesseractEngine(language string, temps *tempfiles.Manager) *Engine {
	return NewEngine(NewTesseractRecognizer(language), temps)
}

// Recognize performs a single OCR pass with the given page segmentation
// mode. Confidence is the mean confidence of words Tesseract is positive
// about; when word data is unavailable the trimmed text length stands in,
// so longer plausible reads still win the mode search.
func (t *TesseractRecognizer) Recognize(ctx context.Context, imagePath string, psm int) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language %q: %w", t.language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", 0, fmt.Errorf("failed to set page segmentation mode %d: %w", psm, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	confidence, err := meanWordConfidence(client)
	if err != nil {
		confidence = float64(len(strings.TrimSpace(text)))
	}
	return text, confidence, nil
}

// meanWordConfidence averages the confidence of words Tesseract reports a
// positive confidence for. No confident words means zero.
func meanWordConfidence(client *gosseract.Client) (float64, error) {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for _, box := range boxes {
		if box.Confidence > 0 {
			sum += box.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}
