/**
 * Direct Redis queue consumer for compliance check jobs
 *
 * Compatible with the TypeScript RedisQueue implementation used by the API
 * gateway. Uses plain Redis LIST operations so both sides agree on the
 * queue layout: LPUSH/BRPOP on the list, job bodies in a :data hash,
 * status membership in :processing/:completed/:failed sets, results and
 * errors in hashes, and a pub/sub channel for status events.
 */

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/DEMONNN69/anvay/internal/errors"
	"github.com/DEMONNN69/anvay/internal/logging"
)

var errNoJobs = errors.New("no jobs available")

// RedisJobData represents a job envelope from the Redis queue
type RedisJobData struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Payload    JobPayload `json:"payload"`
	CreatedAt  time.Time  `json:"createdAt"`
	Attempts   int        `json:"attempts"`
	MaxRetries int        `json:"maxRetries"`
}

// RedisConsumer handles job consumption from the Redis list queue
type RedisConsumer struct {
	client    *redis.Client
	processor *CheckProcessor
	config    *RedisConsumerConfig
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *logging.Logger
}

// RedisConsumerConfig holds consumer configuration
type RedisConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         *CheckProcessor
	ProcessingTimeout int64 // Processing timeout in milliseconds (default: 300000 = 5 minutes)
}

// NewRedisConsumer creates a new Redis-based queue consumer
func NewRedisConsumer(cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "compliance:checks"
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	consumerCtx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client:    client,
		processor: cfg.Processor,
		config:    cfg,
		ctx:       consumerCtx,
		cancel:    cancel,
		logger:    logging.NewLogger("RedisConsumer"),
	}, nil
}

// Start begins processing jobs from the queue
func (c *RedisConsumer) Start() error {
	c.logger.Info("starting Redis queue consumer",
		"concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}

	c.logger.Info("queue consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *RedisConsumer) Stop() error {
	c.logger.Info("stopping queue consumer")
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// worker is a goroutine that processes jobs
func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()
	c.logger.Info("worker started", "worker", id)

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("worker stopping", "worker", id)
			return
		default:
			if err := c.processNextJob(); err != nil {
				if !errors.Is(err, errNoJobs) {
					c.logger.Error("worker error", "worker", id, "error", err)
				}
				// Small delay before trying again
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// processNextJob fetches and processes the next job from the queue
func (c *RedisConsumer) processNextJob() error {
	// Block for up to 5 seconds waiting for a job
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.config.QueueName).Result()
	if err != nil {
		if err == redis.Nil {
			return errNoJobs
		}
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	jobID := result[1]

	jobData, err := c.client.HGet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to get job data: %w", err)
	}

	var job RedisJobData
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	c.updateJobStatus(job.Payload.CheckID, "processing", nil)

	c.logger.Info("processing job",
		"checkId", job.Payload.CheckID, "filename", job.Payload.Filename)

	outcome, err := c.processJob(&job)
	if err != nil {
		c.logger.Error("job failed", "checkId", job.Payload.CheckID, "error", err)

		job.Attempts++
		if !isPermanent(err) && job.Attempts < job.MaxRetries {
			// Re-queue for retry
			updatedData, _ := json.Marshal(job)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), job.ID, updatedData)
			c.client.LPush(c.ctx, c.config.QueueName, job.ID)
			c.logger.Info("job re-queued for retry",
				"checkId", job.Payload.CheckID, "attempt", job.Attempts, "maxRetries", job.MaxRetries)
		} else {
			c.recordJobFailure(&job, err)
		}
	} else {
		c.updateJobStatus(job.Payload.CheckID, "completed", outcome)
		c.logger.Info("job completed",
			"checkId", job.Payload.CheckID, "recordId", outcome.RecordID,
			"score", outcome.Score, "status", outcome.Status)
	}

	return nil
}

// processJob runs the check under the configured timeout
func (c *RedisConsumer) processJob(job *RedisJobData) (*CheckOutcome, error) {
	startTime := time.Now()

	req := &CheckRequest{
		CheckID:        job.Payload.CheckID,
		UserID:         job.Payload.UserID,
		Filename:       job.Payload.Filename,
		MimeType:       job.Payload.MimeType,
		FileBuffer:     job.Payload.FileBuffer,
		RequiredFields: job.Payload.RequiredFields,
	}

	timeout := 300000 * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	// In-flight jobs run to completion even during shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	outcome, err := c.processor.Process(ctx, req)
	duration := time.Since(startTime)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.logger.Error("job timed out",
				"checkId", req.CheckID, "duration", duration, "timeout", timeout)
			timeoutErr := apperrors.NewProcessingTimeoutError(req.CheckID, timeout, err)
			return nil, fmt.Errorf("processing timeout: %w", timeoutErr)
		}
		return nil, err
	}

	c.logger.Info("job processed", "checkId", req.CheckID, "duration", duration)
	return outcome, nil
}

// recordJobFailure marks the job failed in Redis and persists the failure
func (c *RedisConsumer) recordJobFailure(job *RedisJobData, cause error) {
	c.updateJobStatus(job.Payload.CheckID, "failed", map[string]interface{}{
		"error":    cause.Error(),
		"attempts": job.Attempts,
	})

	req := &CheckRequest{
		CheckID:    job.Payload.CheckID,
		UserID:     job.Payload.UserID,
		Filename:   job.Payload.Filename,
		MimeType:   job.Payload.MimeType,
		FileBuffer: job.Payload.FileBuffer,
	}
	c.processor.RecordFailure(c.ctx, req, cause)
}

// updateJobStatus maintains the Redis status sets and publishes an event
// for WebSocket streaming
func (c *RedisConsumer) updateJobStatus(checkID string, status string, result interface{}) {
	switch status {
	case "processing":
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), checkID)
	case "completed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), checkID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:completed", c.config.QueueName), checkID)
		if result != nil {
			resultData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:results", c.config.QueueName), checkID, resultData)
		}
	case "failed":
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), checkID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:failed", c.config.QueueName), checkID)
		if result != nil {
			errorData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:errors", c.config.QueueName), checkID, errorData)
		}
	}

	event := map[string]interface{}{
		"event":     fmt.Sprintf("check:%s", status),
		"checkId":   checkID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	c.client.Publish(c.ctx, fmt.Sprintf("%s:events", c.config.QueueName), eventData)
}

// GetStats returns queue statistics
func (c *RedisConsumer) GetStats() (map[string]int64, error) {
	ctx := context.Background()

	waiting, _ := c.client.LLen(ctx, c.config.QueueName).Result()
	processing, _ := c.client.SCard(ctx, fmt.Sprintf("%s:processing", c.config.QueueName)).Result()
	completed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:completed", c.config.QueueName)).Result()
	failed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:failed", c.config.QueueName)).Result()

	return map[string]int64{
		"waiting":    waiting,
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}
