/**
 * Shared check executor for queue consumers
 *
 * Both queue drivers decode a job into a CheckRequest and hand it here.
 * The processor sniffs the real MIME type, routes label images to the
 * compliance pipeline and legal PDFs to the document pipeline, and
 * persists every finished check.
 */

package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/DEMONNN69/anvay/internal/compliance"
	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/pdf"
	"github.com/DEMONNN69/anvay/internal/pipeline"
	"github.com/DEMONNN69/anvay/internal/storage"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

// ImageChecker runs compliance checks over a single label image.
type ImageChecker interface {
	CheckImage(ctx context.Context, imagePath string) (*pipeline.Result, error)
	QuickCheck(ctx context.Context, imagePath string, required []compliance.FieldType) *pipeline.QuickResult
}

// DocumentProcessor extracts structure from a legal PDF.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, pdfPath string) (*pdf.Document, error)
}

// CheckStore persists finished checks.
type CheckStore interface {
	SaveCheck(ctx context.Context, record *storage.CheckRecord) (string, error)
}

// CheckRequest is a decoded queue job.
type CheckRequest struct {
	CheckID        string
	UserID         string
	Filename       string
	MimeType       string
	FileBuffer     []byte
	RequiredFields []string
}

// CheckOutcome summarizes a finished check for queue bookkeeping.
type CheckOutcome struct {
	RecordID         string `json:"recordId"`
	CheckID          string `json:"checkId"`
	Score            int    `json:"score"`
	Status           string `json:"status"`
	MimeType         string `json:"mimeType"`
	FieldsDetected   int    `json:"fieldsDetected"`
	TotalPages       int    `json:"totalPages,omitempty"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// CheckProcessor executes queue jobs against the pipelines and storage.
type CheckProcessor struct {
	images      ImageChecker
	documents   DocumentProcessor
	store       CheckStore
	temps       *tempfiles.Manager
	maxFileSize int64
	logger      *logging.Logger
}

// NewCheckProcessor creates a check processor. maxFileSize of 0 disables the
// size cap.
func NewCheckProcessor(images ImageChecker, documents DocumentProcessor, store CheckStore, temps *tempfiles.Manager, maxFileSize int64) *CheckProcessor {
	return &CheckProcessor{
		images:      images,
		documents:   documents,
		store:       store,
		temps:       temps,
		maxFileSize: maxFileSize,
		logger:      logging.NewLogger("CheckProcessor"),
	}
}

// Process runs one queued check end to end and persists the result. The
// returned error is nil only when the check both ran and was stored.
func (p *CheckProcessor) Process(ctx context.Context, req *CheckRequest) (*CheckOutcome, error) {
	startTime := time.Now()

	if req.CheckID == "" {
		req.CheckID = uuid.NewString()
	}

	if len(req.FileBuffer) == 0 {
		return nil, fmt.Errorf("job %s has an empty file buffer", req.CheckID)
	}
	if p.maxFileSize > 0 && int64(len(req.FileBuffer)) > p.maxFileSize {
		return nil, fmt.Errorf("job %s file size %d exceeds limit %d", req.CheckID, len(req.FileBuffer), p.maxFileSize)
	}

	// Trust magic bytes over the declared type when the source was vague.
	if detected := DetectMimeType(req.FileBuffer); detected != "" &&
		(req.MimeType == "" || req.MimeType == "application/octet-stream") {
		p.logger.Info("corrected MIME type from magic bytes",
			"checkId", req.CheckID, "declared", req.MimeType, "detected", detected)
		req.MimeType = detected
	}

	suffix := suffixForMime(req.MimeType)
	if suffix == "" {
		return nil, fmt.Errorf("job %s has unsupported file type %q", req.CheckID, req.MimeType)
	}

	tmpPath, err := p.temps.Acquire(suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer p.temps.Cleanup(tmpPath)

	if err := os.WriteFile(tmpPath, req.FileBuffer, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	record := &storage.CheckRecord{
		CheckID:  req.CheckID,
		UserID:   req.UserID,
		Filename: req.Filename,
		MimeType: req.MimeType,
		FileSize: int64(len(req.FileBuffer)),
	}
	outcome := &CheckOutcome{CheckID: req.CheckID, MimeType: req.MimeType}

	if req.MimeType == "application/pdf" {
		doc, err := p.documents.ProcessDocument(ctx, tmpPath)
		if err != nil {
			return nil, err
		}
		record.Status = "processed"
		record.ExtractedText = doc.FullText
		record.Fields = doc
		outcome.Status = record.Status
		outcome.TotalPages = doc.TotalPages
	} else if len(req.RequiredFields) > 0 {
		quick := p.images.QuickCheck(ctx, tmpPath, toFieldTypes(req.RequiredFields))
		if quick.Status == "error" {
			return nil, fmt.Errorf("quick check failed: %s", quick.Error)
		}
		record.Score = quick.Score
		record.Status = quick.Status
		record.Fields = quick.FieldsFound
		outcome.Score = quick.Score
		outcome.Status = quick.Status
		outcome.FieldsDetected = quick.FieldsDetected
	} else {
		result, err := p.images.CheckImage(ctx, tmpPath)
		if err != nil {
			return nil, err
		}
		record.Score = result.Score
		record.Status = string(result.Status)
		record.ExtractedText = result.ExtractedText
		record.Fields = result.Fields
		outcome.Score = result.Score
		outcome.Status = string(result.Status)
		for _, f := range result.Fields {
			if f.Detected {
				outcome.FieldsDetected++
			}
		}
	}

	record.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	recordID, err := p.store.SaveCheck(ctx, record)
	if err != nil {
		return nil, apperrors.NewStorageFailedError(req.CheckID, err)
	}

	outcome.RecordID = recordID
	outcome.ProcessingTimeMs = record.ProcessingTimeMs
	return outcome, nil
}

// RecordFailure persists a failed check so the API can surface the error.
// Callers invoke it once, after retries are exhausted.
func (p *CheckProcessor) RecordFailure(ctx context.Context, req *CheckRequest, cause error) {
	record := &storage.CheckRecord{
		CheckID:      req.CheckID,
		UserID:       req.UserID,
		Filename:     req.Filename,
		MimeType:     req.MimeType,
		FileSize:     int64(len(req.FileBuffer)),
		Status:       "failed",
		ErrorCode:    "PROCESSING_FAILED",
		ErrorMessage: cause.Error(),
	}

	var pe *apperrors.ProcessingError
	if errors.As(cause, &pe) {
		record.ErrorCode = string(pe.Code)
		record.ErrorMessage = pe.Message
	}

	if _, err := p.store.SaveCheck(ctx, record); err != nil {
		p.logger.Error("failed to persist failed check", "checkId", req.CheckID, "error", err)
	}
}

// isPermanent reports whether retrying the job cannot possibly help.
func isPermanent(err error) bool {
	return apperrors.IsCode(err, apperrors.ErrorImageRead)
}

func toFieldTypes(keys []string) []compliance.FieldType {
	fields := make([]compliance.FieldType, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, compliance.FieldType(k))
	}
	return fields
}
