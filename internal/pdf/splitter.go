/**
 * PDF page splitter
 *
 * Renders each PDF page to a PNG at the configured DPI using go-fitz. Page
 * images land in a scoped temp directory owned by the TempResourceManager,
 * so they disappear with the check that produced them.
 */

package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

// PageSplitter converts a PDF into per-page images, returned in page order.
type PageSplitter interface {
	SplitToImages(ctx context.Context, pdfPath string, dpi int) ([]string, error)
}

// FitzSplitter renders pages through the go-fitz MuPDF bindings.
type FitzSplitter struct {
	temps  *tempfiles.Manager
	logger *logging.Logger
}

// NewFitzSplitter creates a splitter writing into the given temp manager.
func NewFitzSplitter(temps *tempfiles.Manager) *FitzSplitter {
	return &FitzSplitter{
		temps:  temps,
		logger: logging.NewLogger("PDFSplitter"),
	}
}

// SplitToImages renders every page to page_NNN.png inside a fresh scoped
// directory and returns the paths in page order.
func (s *FitzSplitter) SplitToImages(ctx context.Context, pdfPath string, dpi int) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", pdfPath, err)
	}
	defer doc.Close()

	dir, err := s.temps.AcquireDir("anvay-pdf-*")
	if err != nil {
		return nil, err
	}

	total := doc.NumPage()
	s.logger.Info("splitting PDF", "path", pdfPath, "pages", total, "dpi", dpi)

	paths := make([]string, 0, total)
	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(n, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
		}

		path := tempfiles.PageImagePath(dir, n+1)
		if err := writePNG(path, img); err != nil {
			return nil, fmt.Errorf("failed to write page %d image: %w", n+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
