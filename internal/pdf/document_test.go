package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeSplitter struct {
	paths []string
	err   error
}

func (f *fakeSplitter) SplitToImages(context.Context, string, int) ([]string, error) {
	return f.paths, f.err
}

type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string, _ bool) (string, error) {
	if err := f.errs[path]; err != nil {
		return "", err
	}
	return f.texts[path], nil
}

func TestExtractTextPageMarkers(t *testing.T) {
	splitter := &fakeSplitter{paths: []string{"p1.png", "p2.png", "p3.png"}}
	extractor := &fakeExtractor{
		texts: map[string]string{
			"p1.png": "Rule 1. Labels must state the MRP",
			"p3.png": "Rule 2. Labels must state the net quantity",
		},
		errs: map[string]error{"p2.png": errors.New("ocr exploded")},
	}

	p := NewPipeline(splitter, extractor, 300)
	text, pages, err := p.ExtractText(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ExtractText error: %v", err)
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if !strings.Contains(text, "--- Page 2 ---\n[ERROR: Could not process page]") {
		t.Errorf("missing page 2 error marker in:\n%s", text)
	}
	if !strings.Contains(text, "--- Page 1 ---\nRule 1. Labels must state the MRP") {
		t.Errorf("missing page 1 text in:\n%s", text)
	}
	if !strings.Contains(text, "--- Page 3 ---\nRule 2. Labels must state the net quantity") {
		t.Errorf("missing page 3 text in:\n%s", text)
	}
	if strings.HasPrefix(text, "\n") || strings.HasSuffix(text, "\n") {
		t.Error("combined text not trimmed")
	}
}

func TestExtractTextSplitFailure(t *testing.T) {
	splitter := &fakeSplitter{err: errors.New("not a pdf")}
	p := NewPipeline(splitter, &fakeExtractor{}, 300)
	if _, _, err := p.ExtractText(context.Background(), "doc.pdf"); err == nil {
		t.Fatal("expected error when the PDF cannot be split")
	}
}

func TestProcessDocument(t *testing.T) {
	splitter := &fakeSplitter{paths: []string{"p1.png"}}
	extractor := &fakeExtractor{
		texts: map[string]string{
			"p1.png": "Rule 1. Declarations\nEvery package shall declare its contents.\nRule 2. Exemptions\nSmall packages are exempt.\n",
		},
	}

	p := NewPipeline(splitter, extractor, 300)
	doc, err := p.ProcessDocument(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ProcessDocument error: %v", err)
	}
	if doc.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", doc.TotalPages)
	}
	if len(doc.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(doc.Rules))
	}
	if doc.Rules[0].Number != "1" || doc.Rules[1].Number != "2" {
		t.Errorf("rule numbers = %s, %s", doc.Rules[0].Number, doc.Rules[1].Number)
	}
	if !strings.Contains(doc.Rules[0].FullContent, "Every package shall declare") {
		t.Errorf("rule 1 content = %q", doc.Rules[0].FullContent)
	}
	if doc.ProcessedAt == "" {
		t.Error("ProcessedAt not set")
	}
	if len(doc.Sections) == 0 {
		t.Error("expected sections in structured output")
	}
}
