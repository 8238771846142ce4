/**
 * Asynq queue consumer for compliance check jobs
 *
 * Consumes "compliance:check" tasks from Redis using Asynq, which handles
 * retries, priority queues and graceful shutdown.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/logging"
)

// TaskTypeCheck is the Asynq task type for a compliance check job.
const TaskTypeCheck = "compliance:check"

// Consumer handles job consumption from the Asynq-managed queue
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor *CheckProcessor
	config    *ConsumerConfig
	logger    *logging.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         *CheckProcessor
	ProcessingTimeout int64 // Processing timeout in milliseconds (default: 300000 = 5 minutes)
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.NewLogger("QueueConsumer")

	// Client is used for task submission (EnqueueCheck)
	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // Priority 10 for main queue
				"default":     1,  // Priority 1 for fallback
			},
			// Exponential backoff: 5s, 10s, 20s, capped at 60s
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing error",
					"type", task.Type(), "payloadBytes", len(task.Payload()), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		config:    cfg,
		logger:    logger,
	}

	mux.HandleFunc(TaskTypeCheck, consumer.handleCheck)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting queue consumer",
		"concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.logger.Error("queue consumer stopped", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.Info("stopping queue consumer")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	c.logger.Info("queue consumer stopped")
	return nil
}

// EnqueueCheck submits a compliance check job and returns the task id.
func (c *Consumer) EnqueueCheck(ctx context.Context, payload *JobPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeCheck, data),
		asynq.Queue(c.config.QueueName),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue check: %w", err)
	}

	return info.ID, nil
}

// handleCheck processes one compliance check task
func (c *Consumer) handleCheck(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var payload JobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %v: %w", err, asynq.SkipRetry)
	}

	c.logger.Info("processing check",
		"checkId", payload.CheckID, "filename", payload.Filename,
		"size", len(payload.FileBuffer), "user", payload.UserID)

	timeout := 300000 * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &CheckRequest{
		CheckID:        payload.CheckID,
		UserID:         payload.UserID,
		Filename:       payload.Filename,
		MimeType:       payload.MimeType,
		FileBuffer:     payload.FileBuffer,
		RequiredFields: payload.RequiredFields,
	}

	outcome, err := c.processor.Process(processCtx, req)
	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			c.logger.Error("check timed out",
				"checkId", req.CheckID, "duration", duration, "timeout", timeout)
			timeoutErr := apperrors.NewProcessingTimeoutError(req.CheckID, timeout, err)
			c.processor.RecordFailure(ctx, req, timeoutErr)
			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		if isPermanent(err) {
			c.logger.Error("check failed permanently", "checkId", req.CheckID, "error", err)
			c.processor.RecordFailure(ctx, req, err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		// Persist the failure only once, on the final attempt.
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried >= maxRetry {
			c.processor.RecordFailure(ctx, req, err)
		}

		c.logger.Error("check failed",
			"checkId", req.CheckID, "duration", duration,
			"attempt", retried, "maxRetry", maxRetry, "error", err)
		return fmt.Errorf("check processing failed: %w", err)
	}

	c.logger.Info("check completed",
		"checkId", outcome.CheckID, "recordId", outcome.RecordID,
		"score", outcome.Score, "status", outcome.Status, "duration", duration)
	return nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"redisURL":    c.config.RedisURL,
	}
}
