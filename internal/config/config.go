/**
 * Configuration for the compliance worker
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL    string
	QueueName   string
	QueueDriver string // "redis" (list consumer) or "asynq"

	// PostgreSQL configuration
	DatabaseURL string

	// OCR backend configuration
	OCRBackend   string // "tesseract" (local) or "vision" (remote API)
	OCRLanguage  string
	VisionAPIURL string
	VisionAPIKey string
	VisionModel  string

	// Scoring policy: score >= PassThreshold -> pass,
	// score >= PartialThreshold -> partial, else fail
	PassThreshold    int
	PartialThreshold int

	// PDF rendering
	PDFRenderDPI int

	// Worker configuration
	WorkerConcurrency int
	MaxFileSize       int64
	ProcessingTimeout int // milliseconds

	// Temporary directory for preprocessed images and PDF pages
	TempDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "compliance:checks"),
		QueueDriver:       getEnvOrDefault("QUEUE_DRIVER", "redis"),
		DatabaseURL:       getEnvOrThrow("DATABASE_URL"),
		OCRBackend:        getEnvOrDefault("OCR_BACKEND", "tesseract"),
		OCRLanguage:       getEnvOrDefault("OCR_LANGUAGE", "eng"),
		VisionAPIURL:      getEnvOrDefault("VISION_API_URL", ""),
		VisionAPIKey:      getEnvOrDefault("VISION_API_KEY", ""),
		VisionModel:       getEnvOrDefault("VISION_MODEL", "vision-ocr-latest"),
		PassThreshold:     getEnvAsIntOrDefault("PASS_THRESHOLD", 60),
		PartialThreshold:  getEnvAsIntOrDefault("PARTIAL_THRESHOLD", 40),
		PDFRenderDPI:      getEnvAsIntOrDefault("PDF_RENDER_DPI", 300),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		MaxFileSize:       getEnvAsInt64OrDefault("MAX_FILE_SIZE", 52428800), // 50MB
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000), // 5 minutes
		TempDir:           getEnvOrDefault("TEMP_DIR", os.TempDir()),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.QueueDriver != "redis" && c.QueueDriver != "asynq" {
		return fmt.Errorf("QUEUE_DRIVER must be \"redis\" or \"asynq\", got %q", c.QueueDriver)
	}

	if c.OCRBackend != "tesseract" && c.OCRBackend != "vision" {
		return fmt.Errorf("OCR_BACKEND must be \"tesseract\" or \"vision\", got %q", c.OCRBackend)
	}

	if c.OCRBackend == "vision" && c.VisionAPIURL == "" {
		return fmt.Errorf("VISION_API_URL is required when OCR_BACKEND=vision")
	}

	if c.PassThreshold < 0 || c.PassThreshold > 100 {
		return fmt.Errorf("PASS_THRESHOLD must be between 0 and 100, got %d", c.PassThreshold)
	}

	if c.PartialThreshold < 0 || c.PartialThreshold > c.PassThreshold {
		return fmt.Errorf("PARTIAL_THRESHOLD must be between 0 and PASS_THRESHOLD, got %d", c.PartialThreshold)
	}

	if c.PDFRenderDPI < 72 || c.PDFRenderDPI > 1200 {
		return fmt.Errorf("PDF_RENDER_DPI must be between 72 and 1200, got %d", c.PDFRenderDPI)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxFileSize < 1024 || c.MaxFileSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_FILE_SIZE must be between 1KB and 1GB, got %d", c.MaxFileSize)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or panics
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
