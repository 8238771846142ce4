/**
 * Document pipeline - legal PDF text extraction
 *
 * Splits a PDF into page images, OCRs each page and stitches the text back
 * together with page markers. A page that fails OCR leaves an inline error
 * marker and processing continues; only a document that cannot be opened at
 * all fails the call.
 */

package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/ocr"
)

const pageErrorMarker = "[ERROR: Could not process page]"

// Document is the structured result of processing a legal PDF.
type Document struct {
	FullText    string    `json:"full_text"`
	Sections    []Section `json:"sections"`
	Rules       []Rule    `json:"rules"`
	TotalPages  int       `json:"total_pages"`
	ProcessedAt string    `json:"processed_at"`
}

// Pipeline orchestrates page splitting, per-page OCR and structure
// derivation.
type Pipeline struct {
	splitter  PageSplitter
	extractor ocr.TextExtractor
	dpi       int
	logger    *logging.Logger
}

// NewPipeline creates a document pipeline rendering pages at the given DPI.
func NewPipeline(splitter PageSplitter, extractor ocr.TextExtractor, dpi int) *Pipeline {
	return &Pipeline{
		splitter:  splitter,
		extractor: extractor,
		dpi:       dpi,
		logger:    logging.NewLogger("DocumentPipeline"),
	}
}

// ExtractText OCRs every page and returns the combined text with
// "--- Page N ---" markers plus the page count. Pages render clean at the
// configured DPI, so per-page OCR skips preprocessing.
func (p *Pipeline) ExtractText(ctx context.Context, pdfPath string) (string, int, error) {
	paths, err := p.splitter.SplitToImages(ctx, pdfPath, p.dpi)
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	for i, path := range paths {
		pageText := pageErrorMarker
		text, err := p.extractor.ExtractText(ctx, path, false)
		if err != nil {
			pageErr := apperrors.NewPDFPageError(pdfPath, i+1, err)
			p.logger.Warn("failed to process page", "page", i+1, "error", pageErr)
		} else {
			pageText = text
		}
		fmt.Fprintf(&b, "\n\n--- Page %d ---\n%s", i+1, pageText)
	}
	return strings.TrimSpace(b.String()), len(paths), nil
}

// ProcessDocument extracts the document text and derives its best-effort
// rule/section structure.
func (p *Pipeline) ProcessDocument(ctx context.Context, pdfPath string) (*Document, error) {
	fullText, pages, err := p.ExtractText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	sections, rules := DeriveStructure(fullText)
	return &Document{
		FullText:    fullText,
		Sections:    sections,
		Rules:       rules,
		TotalPages:  pages,
		ProcessedAt: time.Now().Format("2006-01-02 15:04:05"),
	}, nil
}
