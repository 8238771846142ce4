package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/DEMONNN69/anvay/internal/compliance"
	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/pdf"
	"github.com/DEMONNN69/anvay/internal/pipeline"
	"github.com/DEMONNN69/anvay/internal/storage"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

type fakeChecker struct {
	result     *pipeline.Result
	quick      *pipeline.QuickResult
	err        error
	checkCalls int
	quickCalls int
	lastPath   string
	seenBytes  []byte
}

func (f *fakeChecker) CheckImage(ctx context.Context, imagePath string) (*pipeline.Result, error) {
	f.checkCalls++
	f.lastPath = imagePath
	f.seenBytes, _ = os.ReadFile(imagePath)
	return f.result, f.err
}

func (f *fakeChecker) QuickCheck(ctx context.Context, imagePath string, required []compliance.FieldType) *pipeline.QuickResult {
	f.quickCalls++
	f.lastPath = imagePath
	return f.quick
}

type fakeDocs struct {
	doc   *pdf.Document
	err   error
	calls int
}

func (f *fakeDocs) ProcessDocument(ctx context.Context, pdfPath string) (*pdf.Document, error) {
	f.calls++
	return f.doc, f.err
}

type fakeStore struct {
	records []*storage.CheckRecord
	err     error
}

func (f *fakeStore) SaveCheck(ctx context.Context, record *storage.CheckRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, record)
	return fmt.Sprintf("rec-%d", len(f.records)), nil
}

func pngBuffer() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, []byte("fake png body")...)
}

func newTestProcessor(t *testing.T, images ImageChecker, docs DocumentProcessor, store CheckStore, maxSize int64) *CheckProcessor {
	t.Helper()
	return NewCheckProcessor(images, docs, store, tempfiles.NewManager(t.TempDir()), maxSize)
}

func TestProcessImageJob(t *testing.T) {
	buf := pngBuffer()
	checker := &fakeChecker{
		result: &pipeline.Result{
			Score:         60,
			ExtractedText: "MRP: Rs. 150",
			Status:        compliance.StatusPass,
			Fields: []pipeline.FieldResult{
				{Key: "mrp", Detected: true, Value: "₹150"},
				{Key: "net_quantity", Detected: true, Value: "500 g"},
				{Key: "manufacturer", Detected: false},
			},
		},
	}
	store := &fakeStore{}
	p := newTestProcessor(t, checker, &fakeDocs{}, store, 0)

	outcome, err := p.Process(context.Background(), &CheckRequest{
		CheckID:    "chk-img",
		UserID:     "user-1",
		Filename:   "label.png",
		FileBuffer: buf,
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if checker.checkCalls != 1 {
		t.Fatalf("CheckImage calls = %d, want 1", checker.checkCalls)
	}
	if string(checker.seenBytes) != string(buf) {
		t.Errorf("pipeline saw %d bytes, want the full %d-byte buffer", len(checker.seenBytes), len(buf))
	}
	if _, statErr := os.Stat(checker.lastPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s not cleaned up", checker.lastPath)
	}

	if outcome.RecordID != "rec-1" || outcome.Score != 60 || outcome.Status != "pass" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.FieldsDetected != 2 {
		t.Errorf("FieldsDetected = %d, want 2", outcome.FieldsDetected)
	}

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.CheckID != "chk-img" || rec.UserID != "user-1" || rec.Status != "pass" || rec.Score != 60 {
		t.Errorf("record = %+v", rec)
	}
	if rec.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png from magic bytes", rec.MimeType)
	}
	if rec.FileSize != int64(len(buf)) {
		t.Errorf("FileSize = %d, want %d", rec.FileSize, len(buf))
	}
}

func TestProcessPDFJob(t *testing.T) {
	docs := &fakeDocs{
		doc: &pdf.Document{
			FullText:   "Rule 6. Declarations",
			TotalPages: 3,
		},
	}
	store := &fakeStore{}
	p := newTestProcessor(t, &fakeChecker{}, docs, store, 0)

	outcome, err := p.Process(context.Background(), &CheckRequest{
		CheckID:    "chk-pdf",
		Filename:   "rules.pdf",
		FileBuffer: []byte("%PDF-1.4\nfake pdf body"),
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if docs.calls != 1 {
		t.Fatalf("ProcessDocument calls = %d, want 1", docs.calls)
	}
	if outcome.Status != "processed" || outcome.TotalPages != 3 {
		t.Errorf("outcome = %+v", outcome)
	}

	rec := store.records[0]
	if rec.MimeType != "application/pdf" || rec.ExtractedText != "Rule 6. Declarations" {
		t.Errorf("record = %+v", rec)
	}
	if _, ok := rec.Fields.(*pdf.Document); !ok {
		t.Errorf("Fields type = %T, want *pdf.Document", rec.Fields)
	}
}

func TestProcessQuickJobWithRequiredFields(t *testing.T) {
	checker := &fakeChecker{
		quick: &pipeline.QuickResult{
			Status:         "success",
			Score:          67,
			FieldsDetected: 2,
			FieldsFound: map[compliance.FieldType]string{
				compliance.FieldMRP:         "₹99",
				compliance.FieldNetQuantity: "1 kg",
			},
		},
	}
	store := &fakeStore{}
	p := newTestProcessor(t, checker, &fakeDocs{}, store, 0)

	outcome, err := p.Process(context.Background(), &CheckRequest{
		CheckID:        "chk-quick",
		FileBuffer:     pngBuffer(),
		RequiredFields: []string{"mrp", "net_quantity", "manufacturer"},
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if checker.quickCalls != 1 || checker.checkCalls != 0 {
		t.Errorf("calls quick=%d full=%d, want quick only", checker.quickCalls, checker.checkCalls)
	}
	if outcome.Score != 67 || outcome.FieldsDetected != 2 {
		t.Errorf("outcome = %+v", outcome)
	}
	if store.records[0].Status != "success" {
		t.Errorf("stored status = %q", store.records[0].Status)
	}
}

func TestProcessRejectsBadJobs(t *testing.T) {
	tests := []struct {
		name    string
		req     *CheckRequest
		maxSize int64
	}{
		{"empty buffer", &CheckRequest{CheckID: "c1"}, 0},
		{"oversize buffer", &CheckRequest{CheckID: "c2", FileBuffer: pngBuffer()}, 4},
		{"unsupported type", &CheckRequest{CheckID: "c3", FileBuffer: []byte("plain text file")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p := newTestProcessor(t, &fakeChecker{}, &fakeDocs{}, store, tt.maxSize)
			if _, err := p.Process(context.Background(), tt.req); err == nil {
				t.Fatal("Process() expected error, got none")
			}
			if len(store.records) != 0 {
				t.Errorf("stored %d records, want none", len(store.records))
			}
		})
	}
}

func TestProcessKeepsDeclaredMimeType(t *testing.T) {
	// Magic bytes only override missing or generic declared types.
	checker := &fakeChecker{result: &pipeline.Result{Status: compliance.StatusFail}}
	store := &fakeStore{}
	p := newTestProcessor(t, checker, &fakeDocs{}, store, 0)

	if _, err := p.Process(context.Background(), &CheckRequest{
		CheckID:    "chk-jpg",
		MimeType:   "image/jpeg",
		FileBuffer: pngBuffer(),
	}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if store.records[0].MimeType != "image/jpeg" {
		t.Errorf("MimeType = %q, want declared image/jpeg", store.records[0].MimeType)
	}
}

func TestProcessGeneratesCheckID(t *testing.T) {
	checker := &fakeChecker{result: &pipeline.Result{Status: compliance.StatusFail}}
	store := &fakeStore{}
	p := newTestProcessor(t, checker, &fakeDocs{}, store, 0)

	outcome, err := p.Process(context.Background(), &CheckRequest{FileBuffer: pngBuffer()})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if outcome.CheckID == "" || store.records[0].CheckID != outcome.CheckID {
		t.Errorf("CheckID not generated consistently: outcome=%q record=%q",
			outcome.CheckID, store.records[0].CheckID)
	}
}

func TestProcessWrapsStorageError(t *testing.T) {
	checker := &fakeChecker{result: &pipeline.Result{Status: compliance.StatusPass}}
	p := newTestProcessor(t, checker, &fakeDocs{}, &fakeStore{err: errors.New("connection refused")}, 0)

	_, err := p.Process(context.Background(), &CheckRequest{CheckID: "chk-s", FileBuffer: pngBuffer()})
	if !apperrors.IsCode(err, apperrors.ErrorStorageFailed) {
		t.Errorf("error = %v, want STORAGE_FAILED", err)
	}
}

func TestRecordFailure(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(t, &fakeChecker{}, &fakeDocs{}, store, 0)

	cause := apperrors.NewOCRFailedError("/tmp/label.png", errors.New("all modes failed"))
	p.RecordFailure(context.Background(), &CheckRequest{
		CheckID:  "chk-fail",
		Filename: "label.png",
	}, cause)

	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != "failed" || rec.ErrorCode != "OCR_FAILED" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ErrorMessage == "" {
		t.Error("ErrorMessage is empty")
	}
}

func TestRecordFailureGenericError(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(t, &fakeChecker{}, &fakeDocs{}, store, 0)

	p.RecordFailure(context.Background(), &CheckRequest{CheckID: "chk-g"}, errors.New("boom"))

	rec := store.records[0]
	if rec.ErrorCode != "PROCESSING_FAILED" || rec.ErrorMessage != "boom" {
		t.Errorf("record = %+v", rec)
	}
}
