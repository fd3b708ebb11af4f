package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/jobs/queue"
	"github.com/cuongbtq/jobqueue/internal/metrics"
)

// ErrAlreadyStarted is returned when Start is called more than once
var ErrAlreadyStarted = errors.New("worker already started")

// Defaults applied by NewWorker to zero config values
const (
	DefaultBatchSize     = 1
	DefaultBlockTimeout  = time.Second
	DefaultRetryDelay    = time.Second
	DefaultRetryMaxDelay = 30 * time.Second
)

// JobStore is the part of the job store the worker writes outcomes to
type JobStore interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateResult(ctx context.Context, jobID string, result float64) error
	UpdateError(ctx context.Context, jobID, message string) error
}

// JobQueue is the part of the work queue the worker consumes
type JobQueue interface {
	TailID(ctx context.Context) (string, error)
	Read(ctx context.Context, position string, count int64, block time.Duration) ([]domain.QueueEntry, error)
	Delete(ctx context.Context, entryID string) error
}

// Notifier is told about every job the worker finishes
type Notifier interface {
	Notify(ctx context.Context, job *domain.Job) error
}

// Config holds worker configuration
type Config struct {
	Logger   *slog.Logger
	Store    JobStore
	Queue    JobQueue
	Registry *Registry
	Notifier Notifier
	Metrics  *metrics.Metrics

	// BatchSize is the maximum number of entries taken per read
	BatchSize int64
	// BlockTimeout bounds each blocking read so shutdown is noticed promptly
	BlockTimeout time.Duration
	// RetryDelay and RetryMaxDelay bound the backoff after a failed read or
	// a failed store call
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
	// JobTimeout bounds a single handler run. Zero means unbounded.
	JobTimeout time.Duration
	// SimulatedDelay is slept before each handler runs
	SimulatedDelay time.Duration
	// StartPosition is "$" to consume only entries added after startup or
	// a stream id such as "0" to replay the existing backlog
	StartPosition string
}

// Worker consumes the work queue one entry at a time, runs the matching
// handler and records the outcome in the job store
type Worker struct {
	logger        *slog.Logger
	store         JobStore
	queue         JobQueue
	registry      *Registry
	notifier      Notifier
	metrics       *metrics.Metrics
	batchSize     int64
	blockTimeout  time.Duration
	backoff       *exponentialBackoff
	startPosition string
	run           Middleware

	ready    chan struct{}
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once

	// mu orders wg.Add in Start before wg.Wait in Stop
	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	blockTimeout := cfg.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = DefaultBlockTimeout
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	retryMaxDelay := cfg.RetryMaxDelay
	if retryMaxDelay < retryDelay {
		retryMaxDelay = max(DefaultRetryMaxDelay, retryDelay)
	}
	startPosition := cfg.StartPosition
	if startPosition == "" {
		startPosition = queue.PositionTail
	}

	return &Worker{
		logger:        cfg.Logger,
		store:         cfg.Store,
		queue:         cfg.Queue,
		registry:      registry,
		notifier:      cfg.Notifier,
		metrics:       cfg.Metrics,
		batchSize:     batchSize,
		blockTimeout:  blockTimeout,
		backoff:       newExponentialBackoff(retryDelay, retryMaxDelay),
		startPosition: startPosition,
		run: Chain(
			Recover(cfg.Logger),
			Timeout(cfg.JobTimeout),
			SimulatedLatency(cfg.SimulatedDelay),
		),
		ready:    make(chan struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start processes jobs until ctx is canceled or Stop is called. It blocks
// and returns nil on a graceful stop. A job already running when the stop
// is requested is finished and recorded first.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	if w.stopped {
		w.mu.Unlock()
		w.logger.Info("Worker stopped before starting")
		return nil
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.logger.Info("Starting worker",
		slog.Int64("batch_size", w.batchSize),
		slog.Duration("block_timeout", w.blockTimeout),
		slog.String("start_position", w.startPosition),
		slog.Any("job_types", w.registry.Kinds()),
	)

	position, ok := w.resolveStartPosition(ctx)
	if !ok {
		w.logger.Info("Worker stopped before consuming")
		return nil
	}
	close(w.ready)

	w.logger.Info("Worker consuming queue",
		slog.String("position", position),
	)

	w.consume(ctx, position)

	w.logger.Info("Worker loop exited")
	return nil
}

// Ready is closed once the worker has fixed its start position. Entries
// published after that are guaranteed to be consumed.
func (w *Worker) Ready() <-chan struct{} {
	return w.ready
}

// Stop gracefully stops the worker and waits for Start to return. A Start
// that begins after Stop returns without consuming.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// resolveStartPosition turns "$" into the id of the current newest entry so
// that nothing appended between two bounded reads is skipped
func (w *Worker) resolveStartPosition(ctx context.Context) (string, bool) {
	if w.startPosition != queue.PositionTail {
		return w.startPosition, true
	}

	for attempt := 1; ; attempt++ {
		if w.stopping(ctx) {
			return "", false
		}

		id, err := w.queue.TailID(ctx)
		if err == nil {
			return id, true
		}

		if w.stopping(ctx) {
			return "", false
		}
		delay := w.backoff.Delay(attempt)
		w.logger.Error("Failed to resolve queue position",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", delay),
		)
		w.sleep(ctx, delay)
	}
}
