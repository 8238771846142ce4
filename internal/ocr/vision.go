/**
 * Vision client - remote OCR backend
 *
 * Sends images to a hosted vision model endpoint instead of running
 * Tesseract locally. Selected with OCR_BACKEND=vision; the worker falls back
 * to this when deployments cannot ship the Tesseract native library.
 */

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/imaging"
	"github.com/DEMONNN69/anvay/internal/logging"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

// VisionClient handles communication with the remote vision OCR service.
type VisionClient struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
	pre        *imaging.Preprocessor
	temps      *tempfiles.Manager
	logger     *logging.Logger
}

// visionRequest is the extraction request body.
type visionRequest struct {
	Image    string `json:"image"`  // Base64 encoded image
	Format   string `json:"format"` // Always "base64"
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
}

// visionResponse is the extraction response envelope.
type visionResponse struct {
	Success bool       `json:"success"`
	Data    visionData `json:"data"`
	Message string     `json:"message"`
}

// visionData contains the extracted text and metadata.
type visionData struct {
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	ModelUsed      string  `json:"modelUsed"`
	ProcessingTime int64   `json:"processingTime"` // milliseconds
}

// NewVisionClient creates a vision OCR client.
func NewVisionClient(baseURL, apiKey, model, language string, temps *tempfiles.Manager) *VisionClient {
	return &VisionClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		model:    model,
		language: language,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Vision tasks can take time
		},
		pre:    imaging.NewPreprocessor(),
		temps:  temps,
		logger: logging.NewLogger("VisionClient"),
	}
}

// ExtractText uploads the image and returns the cleaned extracted text.
// Preprocessing runs locally before upload so both backends see the same
// normalized input.
func (c *VisionClient) ExtractText(ctx context.Context, path string, preprocess bool) (string, error) {
	sourcePath := path
	if preprocess {
		tmp, err := c.temps.Acquire(".png")
		if err != nil {
			return "", apperrors.NewOCRFailedError(path, err)
		}
		defer c.temps.Cleanup(tmp)

		if err := c.pre.PreprocessFile(path, tmp); err != nil {
			return "", err
		}
		sourcePath = tmp
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", apperrors.NewImageReadError(sourcePath, err)
	}

	c.logger.Info("Requesting text extraction from vision service",
		"model", c.model,
		"imageSize", len(data))

	reqBody, err := json.Marshal(&visionRequest{
		Image:    base64.StdEncoding.EncodeToString(data),
		Format:   "base64",
		Model:    c.model,
		Language: c.language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/vision/extract-text", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.NewOCRFailedError(path, fmt.Errorf("request to vision service failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewOCRFailedError(path,
			fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed visionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse vision response: %w", err)
	}
	if !parsed.Success {
		return "", apperrors.NewOCRFailedError(path,
			fmt.Errorf("vision service rejected request: %s", parsed.Message))
	}

	c.logger.Debug("vision extraction complete",
		"modelUsed", parsed.Data.ModelUsed,
		"confidence", parsed.Data.Confidence,
		"processingTime", parsed.Data.ProcessingTime)
	return CleanText(parsed.Data.Text), nil
}
