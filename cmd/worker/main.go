/**
 * Anvay Compliance Worker - Main Entry Point
 *
 * Go worker for Legal Metrology compliance checks on product label images
 * and structure extraction from legal PDF documents.
 *
 * Architecture:
 * - Redis-backed job queue (plain list consumer or Asynq, configurable)
 * - Multi-mode Tesseract OCR with OpenCV-style image preprocessing
 * - Regex-driven extraction of mandatory label declarations
 * - PostgreSQL persistence for check results
 */

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DEMONNN69/anvay/internal/compliance"
	"github.com/DEMONNN69/anvay/internal/config"
	"github.com/DEMONNN69/anvay/internal/ocr"
	"github.com/DEMONNN69/anvay/internal/pdf"
	"github.com/DEMONNN69/anvay/internal/pipeline"
	"github.com/DEMONNN69/anvay/internal/queue"
	"github.com/DEMONNN69/anvay/internal/storage"
	"github.com/DEMONNN69/anvay/internal/tempfiles"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Anvay compliance worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Queue=%s, Driver=%s, OCR=%s, Workers=%d",
		cfg.RedisURL, cfg.QueueName, cfg.QueueDriver, cfg.OCRBackend, cfg.WorkerConcurrency)

	// Initialize PostgreSQL storage
	log.Printf("Connecting to PostgreSQL...")
	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	log.Printf("Storage initialized")

	// Temp file manager shared by preprocessing and PDF splitting
	temps := tempfiles.NewManager(cfg.TempDir)
	defer temps.ReleaseAll()

	// Select OCR backend
	var extractor ocr.TextExtractor
	switch cfg.OCRBackend {
	case "vision":
		log.Printf("Using remote vision OCR backend: %s (model=%s)", cfg.VisionAPIURL, cfg.VisionModel)
		extractor = ocr.NewVisionClient(cfg.VisionAPIURL, cfg.VisionAPIKey, cfg.VisionModel, cfg.OCRLanguage, temps)
	default:
		log.Printf("Using local Tesseract OCR backend (language=%s)", cfg.OCRLanguage)
		extractor = ocr.NewTesseractEngine(cfg.OCRLanguage, temps)
	}

	// Build the processing pipelines
	policy := compliance.ThresholdPolicy{
		PassAt:    cfg.PassThreshold,
		PartialAt: cfg.PartialThreshold,
	}
	images := pipeline.New(extractor, store, policy)
	documents := pdf.NewPipeline(pdf.NewFitzSplitter(temps), extractor, cfg.PDFRenderDPI)
	checkProcessor := queue.NewCheckProcessor(images, documents, store, temps, cfg.MaxFileSize)
	log.Printf("Pipelines initialized (pass>=%d, partial>=%d, dpi=%d)",
		cfg.PassThreshold, cfg.PartialThreshold, cfg.PDFRenderDPI)

	// Initialize the configured queue driver
	log.Printf("Connecting to Redis queue...")
	var stopConsumer func() error
	switch cfg.QueueDriver {
	case "asynq":
		consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         cfg.QueueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         checkProcessor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
		})
		if err != nil {
			log.Fatalf("Failed to initialize queue consumer: %v", err)
		}
		if err := consumer.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start queue consumer: %v", err)
		}
		stopConsumer = func() error { return consumer.Stop(context.Background()) }
	default:
		consumer, err := queue.NewRedisConsumer(&queue.RedisConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         cfg.QueueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         checkProcessor,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
		})
		if err != nil {
			log.Fatalf("Failed to initialize queue consumer: %v", err)
		}
		if err := consumer.Start(); err != nil {
			log.Fatalf("Failed to start queue consumer: %v", err)
		}
		stopConsumer = consumer.Stop
	}
	log.Printf("Queue consumer started (driver=%s, concurrency=%d)", cfg.QueueDriver, cfg.WorkerConcurrency)

	log.Printf("===========================================")
	log.Printf("Anvay Compliance Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("OCR backend: %s", cfg.OCRBackend)
	log.Printf("Max file size: %d bytes", cfg.MaxFileSize)
	log.Printf("Processing timeout: %dms", cfg.ProcessingTimeout)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	log.Printf("Stopping queue consumer...")
	if err := stopConsumer(); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	} else {
		log.Printf("Queue consumer stopped successfully")
	}

	log.Printf("Closing storage...")
	if err := store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	} else {
		log.Printf("Storage closed")
	}

	log.Printf("Shutdown complete")
}

// healthCheck verifies the worker's database connection.
func healthCheck(db *storage.PostgresClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
