package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the compliance worker
 *
 * Fatal failures (unreadable input, exhausted OCR) carry a code the API layer
 * can map to a user-visible message; recoverable failures (single PDF page,
 * temp-file cleanup) are handled locally and never abort a check.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorImageRead ErrorCode = "IMAGE_READ_FAILED"

	// Processing errors
	ErrorOCRFailed         ErrorCode = "OCR_FAILED"
	ErrorPDFPageFailed     ErrorCode = "PDF_PAGE_FAILED"
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"

	// Resource errors
	ErrorCleanupFailed ErrorCode = "CLEANUP_FAILED"
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	Path      string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err (or anything it wraps) is a ProcessingError
// carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// Factory functions for common errors

func NewImageReadError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorImageRead,
		Message:   fmt.Sprintf("Could not read image: %s", path),
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewOCRFailedError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   "Could not read any text from the label",
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewPDFPageError(path string, page int, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorPDFPageFailed,
		Message:   fmt.Sprintf("Could not process page %d", page),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"page": page,
		},
		Cause: cause,
	}
}

func NewCleanupFailedError(path string, attempts int, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorCleanupFailed,
		Message:   fmt.Sprintf("Could not remove temp file after %d attempts", attempts),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"attempts": attempts,
		},
		Cause: cause,
	}
}

func NewProcessingTimeoutError(checkID string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"check_id":         checkID,
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewStorageFailedError(checkID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store check result",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"check_id": checkID,
		},
		Cause: cause,
	}
}

// ToMap converts error to map for queue/database storage
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.Path != "" {
		result["path"] = e.Path
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
