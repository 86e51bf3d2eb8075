package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/internal/metrics"
	"go.uber.org/zap"
)

// ImageJob asks for an image to be attached to a persisted recipe
type ImageJob struct {
	RecipeID    uuid.UUID
	Title       string
	Description string
}

// ImageCompleterConfig sizes the image worker pool
type ImageCompleterConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// ImageCompleter generates, uploads and attaches recipe images on a bounded
// pool of background workers. Jobs never report back to the caller.
type ImageCompleter struct {
	generator ImageGenerator
	storage   ObjectStorage
	recipes   RecipeStore
	cfg       ImageCompleterConfig
	logger    *zap.Logger

	queue   chan ImageJob
	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[uuid.UUID]struct{}
	started bool
	closed  bool
}

var _ IImageScheduler = (*ImageCompleter)(nil)

// NewImageCompleter creates a new ImageCompleter
func NewImageCompleter(generator ImageGenerator, storage ObjectStorage, recipes RecipeStore, cfg ImageCompleterConfig, logger *zap.Logger) *ImageCompleter {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 3 * time.Minute
	}
	return &ImageCompleter{
		generator: generator,
		storage:   storage,
		recipes:   recipes,
		cfg:       cfg,
		logger:    logger.Named("images"),
		queue:     make(chan ImageJob, cfg.QueueSize),
		pending:   make(map[uuid.UUID]struct{}),
	}
}

// Start launches the workers. Jobs run under ctx.
func (c *ImageCompleter) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true

	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}
	c.logger.Info("image workers started", zap.Int("workers", c.cfg.Workers), zap.Int("queue_size", c.cfg.QueueSize))
}

// Stop rejects new jobs and waits for queued jobs to finish or ctx to end
func (c *ImageCompleter) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("image workers stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("image workers did not drain: %w", ctx.Err())
	}
}

// Enqueue schedules job without blocking. It reports false when the queue
// is full, the completer is stopped, or the recipe already has a job pending.
func (c *ImageCompleter) Enqueue(job ImageJob) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		metrics.ImageJobsTotal.WithLabelValues("dropped").Inc()
		return false
	}
	if _, ok := c.pending[job.RecipeID]; ok {
		metrics.ImageJobsTotal.WithLabelValues("duplicate").Inc()
		return false
	}

	select {
	case c.queue <- job:
		c.pending[job.RecipeID] = struct{}{}
		metrics.ImageQueueDepth.Set(float64(len(c.queue)))
		return true
	default:
		c.logger.Warn("image queue full, dropping job", zap.Stringer("recipe_id", job.RecipeID))
		metrics.ImageJobsTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

func (c *ImageCompleter) worker(ctx context.Context, id int) {
	defer c.wg.Done()
	for job := range c.queue {
		metrics.ImageQueueDepth.Set(float64(len(c.queue)))
		c.run(ctx, job)
		c.mu.Lock()
		delete(c.pending, job.RecipeID)
		c.mu.Unlock()
	}
	c.logger.Debug("image worker exiting", zap.Int("worker", id))
}

// run executes one job. Every failure is logged and absorbed.
func (c *ImageCompleter) run(ctx context.Context, job ImageJob) {
	log := c.logger.With(zap.Stringer("recipe_id", job.RecipeID), zap.String("title", job.Title))
	defer func() {
		if r := recover(); r != nil {
			metrics.ImageJobsTotal.WithLabelValues("failed").Inc()
			log.Error("image job panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.JobTimeout)
	defer cancel()

	imageURL, err := c.complete(ctx, job)
	if err != nil {
		metrics.ImageJobsTotal.WithLabelValues("failed").Inc()
		log.Warn("image completion failed", zap.Error(err))
		return
	}

	metrics.ImageJobsTotal.WithLabelValues("completed").Inc()
	log.Info("recipe image attached", zap.String("image_url", imageURL))
}

func (c *ImageCompleter) complete(ctx context.Context, job ImageJob) (string, error) {
	image, err := c.generator.Generate(ctx, BuildImagePrompt(job.Title))
	if err != nil {
		return "", err
	}
	if len(image) == 0 {
		return "", fmt.Errorf("image generator returned no data")
	}

	key := fmt.Sprintf("recipe_%s.jpg", job.RecipeID)
	imageURL, err := c.storage.Put(ctx, key, image, "image/jpeg")
	if err != nil {
		return "", err
	}

	if err := c.recipes.UpdateRecipeImage(ctx, job.RecipeID, imageURL); err != nil {
		return "", fmt.Errorf("failed to update recipe image: %w", err)
	}
	return imageURL, nil
}
