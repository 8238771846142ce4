/**
 * Anvay Compliance Checker - One-Shot CLI
 *
 * Runs a single compliance check against a product label image or extracts
 * structure from a legal PDF, printing the result as JSON. Useful for local
 * testing without the queue and database.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/DEMONNN69/anvay/internal/compliance"
	"github.com/DEMONNN69/anvay/internal/ocr"
	"github.com/DEMONNN69/anvay/internal/pdf"
	"github.com/DEMONNN69/anvay/internal/pipeline"
	"github.com/DEMONNN69/anvay/internal/storage"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

func main() {
	var (
		imagePath = flag.String("image", "", "path to a product label image")
		pdfPath   = flag.String("pdf", "", "path to a legal PDF document")
		quick     = flag.Bool("quick", false, "run a quick pre-check instead of a full check (images only)")
		fields    = flag.String("fields", "", "comma-separated field keys for quick checks (default: mrp,net_quantity,manufacturer)")
		policy    = flag.String("policy", "default", "threshold policy: default or strict")
		language  = flag.String("lang", "eng", "Tesseract language")
		dpi       = flag.Int("dpi", 300, "render DPI for PDF pages")
		timeout   = flag.Duration("timeout", 5*time.Minute, "processing timeout")
	)
	flag.Parse()

	if (*imagePath == "") == (*pdfPath == "") {
		fmt.Fprintln(os.Stderr, "usage: checker -image <path> [-quick] [-fields mrp,...] [-policy default|strict]")
		fmt.Fprintln(os.Stderr, "       checker -pdf <path> [-dpi 300]")
		os.Exit(2)
	}

	thresholds := compliance.DefaultPolicy
	switch *policy {
	case "default":
	case "strict":
		thresholds = compliance.StrictPolicy
	default:
		log.Fatalf("Unknown policy %q (want default or strict)", *policy)
	}

	temps := tempfiles.NewManager(os.TempDir())
	defer temps.ReleaseAll()

	extractor := ocr.NewTesseractEngine(*language, temps)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var output interface{}
	var err error

	switch {
	case *pdfPath != "":
		documents := pdf.NewPipeline(pdf.NewFitzSplitter(temps), extractor, *dpi)
		output, err = documents.ProcessDocument(ctx, *pdfPath)

	case *quick:
		images := pipeline.New(extractor, storage.NewStaticCatalog(), thresholds)
		output = images.QuickCheck(ctx, *imagePath, parseFieldKeys(*fields))

	default:
		images := pipeline.New(extractor, storage.NewStaticCatalog(), thresholds)
		output, err = images.CheckImage(ctx, *imagePath)
	}

	if err != nil {
		log.Fatalf("Check failed: %v", err)
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(encoded))
}

func parseFieldKeys(raw string) []compliance.FieldType {
	if raw == "" {
		return nil
	}
	var keys []compliance.FieldType
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, compliance.FieldType(part))
		}
	}
	return keys
}
