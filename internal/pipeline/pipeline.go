/**
 * Compliance pipeline - single-image check orchestration
 *
 * Ties OCR and field extraction together and shapes the result the API
 * layer persists and returns. A check that fails OCR still produces a
 * well-formed zero result so callers always have something to store; only
 * unreadable input aborts with a bare error.
 */

package pipeline

import (
	"context"

	"github.com/DEMONNN69/anvay/internal/compliance"
	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/imaging"
	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/ocr"
)

// FieldResult is one catalog field's outcome in a check.
type FieldResult struct {
	Name       string  `json:"name"`
	Key        string  `json:"key"`
	Detected   bool    `json:"detected"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Icon       string  `json:"icon"`
}

// Result is the full compliance check outcome handed to storage and to the
// API layer.
type Result struct {
	Score         int               `json:"score"`
	ExtractedText string            `json:"extracted_text"`
	Fields        []FieldResult     `json:"fields"`
	Status        compliance.Status `json:"status"`
}

// QuickResult is the lightweight pre-check response.
type QuickResult struct {
	Status              string                           `json:"status"`
	Error               string                           `json:"error,omitempty"`
	FieldsFound         map[compliance.FieldType]string  `json:"fields_found"`
	Score               int                              `json:"score"`
	TotalFieldsRequired int                              `json:"total_fields_required,omitempty"`
	FieldsDetected      int                              `json:"fields_detected,omitempty"`
	ExtractedTextLength int                              `json:"extracted_text_length,omitempty"`
}

// quickCheckDefaults is the field set used when the caller does not narrow
// the quick check.
var quickCheckDefaults = []compliance.FieldType{
	compliance.FieldMRP, compliance.FieldNetQuantity, compliance.FieldManufacturer,
}

// CompliancePipeline runs single-image checks.
type CompliancePipeline struct {
	extractor ocr.TextExtractor
	processor *compliance.Processor
	catalog   compliance.FieldCatalog
	policy    compliance.ThresholdPolicy
	logger    *logging.Logger
}

// New creates a pipeline over the given OCR backend, field catalog and
// threshold policy.
func New(extractor ocr.TextExtractor, catalog compliance.FieldCatalog, policy compliance.ThresholdPolicy) *CompliancePipeline {
	return &CompliancePipeline{
		extractor: extractor,
		processor: compliance.NewProcessor(),
		catalog:   catalog,
		policy:    policy,
		logger:    logging.NewLogger("CompliancePipeline"),
	}
}

// CheckImage runs the full check: validate, OCR with preprocessing, extract
// fields, score against the active catalog. OCR exhaustion returns the zero
// result alongside the typed error; unreadable input returns only the error.
func (p *CompliancePipeline) CheckImage(ctx context.Context, imagePath string) (*Result, error) {
	catalogFields, err := p.catalog.ActiveFields(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := imaging.Validate(imagePath); err != nil {
		return nil, err
	}

	text, err := p.extractor.ExtractText(ctx, imagePath, true)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrorImageRead) {
			return nil, err
		}
		p.logger.Error("OCR failed, returning zero result", "path", imagePath, "error", err)
		return p.shape("", nil, nil, catalogFields), err
	}

	fields := p.processor.ExtractFields(text)
	confidences := p.processor.FieldConfidences(fields)
	result := p.shape(text, fields, confidences, catalogFields)

	p.logger.Info("compliance check complete",
		"path", imagePath,
		"score", result.Score,
		"status", result.Status,
		"detected", len(fields))
	return result, nil
}

// QuickCheck validates the image and runs a cheap OCR pass without
// preprocessing, falling back to the full preprocessing path only when the
// cheap pass fails. Errors come back inside the result, never bare.
func (p *CompliancePipeline) QuickCheck(ctx context.Context, imagePath string, required []compliance.FieldType) *QuickResult {
	if len(required) == 0 {
		required = quickCheckDefaults
	}

	if _, err := imaging.Validate(imagePath); err != nil {
		return &QuickResult{
			Status:      "error",
			Error:       err.Error(),
			FieldsFound: map[compliance.FieldType]string{},
		}
	}

	text, err := p.extractor.ExtractText(ctx, imagePath, false)
	if err != nil {
		p.logger.Warn("quick OCR without preprocessing failed, retrying with preprocessing", "error", err)
		text, err = p.extractor.ExtractText(ctx, imagePath, true)
		if err != nil {
			return &QuickResult{
				Status:      "error",
				Error:       err.Error(),
				FieldsFound: map[compliance.FieldType]string{},
			}
		}
	}

	fields := p.processor.ExtractFields(text)
	found := make(map[compliance.FieldType]string)
	for _, ft := range required {
		if v, ok := fields[ft]; ok {
			found[ft] = v
		}
	}

	return &QuickResult{
		Status:              "success",
		FieldsFound:         found,
		Score:               compliance.Score(fields, required),
		TotalFieldsRequired: len(required),
		FieldsDetected:      len(found),
		ExtractedTextLength: len(text),
	}
}

// shape builds the API result for the catalog's field order.
func (p *CompliancePipeline) shape(text string, fields map[compliance.FieldType]string, confidences map[compliance.FieldType]float64, catalogFields []compliance.CatalogField) *Result {
	required := make([]compliance.FieldType, 0, len(catalogFields))
	results := make([]FieldResult, 0, len(catalogFields))
	for _, cf := range catalogFields {
		required = append(required, cf.Key)
		value, detected := fields[cf.Key]
		results = append(results, FieldResult{
			Name:       cf.Name,
			Key:        string(cf.Key),
			Detected:   detected,
			Value:      value,
			Confidence: confidences[cf.Key],
			Icon:       cf.Icon,
		})
	}

	score := compliance.Score(fields, required)
	return &Result{
		Score:         score,
		ExtractedText: text,
		Fields:        results,
		Status:        p.policy.Status(score),
	}
}
