/**
 * OCR engine - multi-pass text extraction from label images
 *
 * Tesseract's accuracy on product labels varies a lot with the page
 * segmentation mode, so the engine runs every candidate mode and keeps the
 * result with the highest mean word confidence. Preprocessing is done once
 * per extraction and shared across all passes.
 */

package ocr

import (
	"context"
	"strings"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/imaging"
	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

// TextExtractor extracts text from an image file. Implementations exist for
// local Tesseract and for the remote vision service.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string, preprocess bool) (string, error)
}

// recognizer runs a single OCR pass over an image with one page segmentation
// mode, returning the raw text and a confidence estimate.
type recognizer interface {
	Recognize(ctx context.Context, imagePath string, psm int) (text string, confidence float64, err error)
}

// Segmentation modes tried per image, in order. 6 (uniform block) handles
// most labels; the others catch columns, single words, single lines and
// sparse text.
var searchModes = []int{6, 4, 8, 7, 11}

// Engine drives the multi-mode OCR search over a single recognizer.
type Engine struct {
	rec    recognizer
	pre    *imaging.Preprocessor
	temps  *tempfiles.Manager
	logger *logging.Logger
}

// NewEngine creates an engine around the given recognizer.
func NewEngine(rec recognizer, temps *tempfiles.Manager) *Engine {
	return &Engine{
		rec:    rec,
		pre:    imaging.NewPreprocessor(),
		temps:  temps,
		logger: logging.NewLogger("OCREngine"),
	}
}

// ExtractText runs the segmentation-mode search and returns the cleaned text
// of the best pass. When preprocessing yields nothing the search is retried
// on the raw image before giving up. The returned error is an OCR_FAILED
// ProcessingError only when every pass failed outright; an image where OCR
// ran but found no text yields an empty string and no error.
func (e *Engine) ExtractText(ctx context.Context, path string, preprocess bool) (string, error) {
	best, err := e.search(ctx, path, preprocess)
	if err != nil {
		if preprocess {
			e.logger.Info("retrying OCR without preprocessing", "path", path)
			best, err = e.search(ctx, path, false)
		}
		if err != nil {
			return "", err
		}
	}

	if strings.TrimSpace(best) == "" && preprocess {
		e.logger.Info("preprocessed OCR found no text, retrying on raw image", "path", path)
		raw, rawErr := e.search(ctx, path, false)
		if rawErr == nil {
			best = raw
		}
	}

	return CleanText(best), nil
}

// search tries every segmentation mode and keeps the highest-confidence
// non-empty result. Individual pass failures are skipped; only when every
// pass errors does search itself fail.
func (e *Engine) search(ctx context.Context, path string, preprocess bool) (string, error) {
	sourcePath := path
	if preprocess {
		tmp, err := e.temps.Acquire(".png")
		if err != nil {
			return "", apperrors.NewOCRFailedError(path, err)
		}
		defer e.temps.Cleanup(tmp)

		if err := e.pre.PreprocessFile(path, tmp); err != nil {
			return "", err
		}
		sourcePath = tmp
	}

	var (
		bestText string
		bestConf float64
		lastErr  error
		failures int
	)
	for _, psm := range searchModes {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, conf, err := e.rec.Recognize(ctx, sourcePath, psm)
		if err != nil {
			e.logger.Debug("OCR pass failed", "psm", psm, "error", err)
			lastErr = err
			failures++
			continue
		}
		if conf > bestConf && strings.TrimSpace(text) != "" {
			bestText = text
			bestConf = conf
		}
	}

	if failures == len(searchModes) {
		return "", apperrors.NewOCRFailedError(path, lastErr)
	}

	e.logger.Debug("OCR search finished",
		"path", path,
		"preprocess", preprocess,
		"confidence", bestConf,
		"textLength", len(bestText))
	return bestText, nil
}
