package producer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/metrics"
	"github.com/google/uuid"
)

// JobStore is the part of the job store the producer needs
type JobStore interface {
	Put(ctx context.Context, job *domain.Job, ttl time.Duration) error
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// Publisher appends queue entries
type Publisher interface {
	Publish(ctx context.Context, jobID string, kind domain.Kind) (string, error)
}

// Config holds producer dependencies
type Config struct {
	Logger     *slog.Logger
	Store      JobStore
	Queue      Publisher
	Metrics    *metrics.Metrics
	DefaultTTL time.Duration
}

// Producer creates job records and hands them to the work queue
type Producer struct {
	logger     *slog.Logger
	store      JobStore
	queue      Publisher
	metrics    *metrics.Metrics
	defaultTTL time.Duration
	newID      func() string
}

// NewProducer creates a new Producer instance
func NewProducer(cfg *Config) *Producer {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = domain.DefaultJobTTL
	}
	return &Producer{
		logger:     cfg.Logger,
		store:      cfg.Store,
		queue:      cfg.Queue,
		metrics:    cfg.Metrics,
		defaultTTL: ttl,
		newID:      func() string { return uuid.New().String() },
	}
}

// Submit stores a pending job, publishes its queue entry and returns the
// new job id without waiting for processing. A non-positive ttl uses the
// configured default.
//
// If publishing fails after the record was stored, the record is left to
// expire and the publish error is returned.
func (p *Producer) Submit(ctx context.Context, kind domain.Kind, input domain.Input, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = p.defaultTTL
	}

	job := domain.NewJob(p.newID(), kind, input)

	if err := p.store.Put(ctx, job, ttl); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	entryID, err := p.queue.Publish(ctx, job.ID, kind)
	if err != nil {
		p.metrics.PublishFailed()
		p.logger.Error("Job stored but not queued - record will expire unprocessed",
			slog.String("job_id", job.ID),
			slog.String("job_type", string(kind)),
			slog.Duration("ttl", ttl),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("failed to queue job %s: %w", job.ID, err)
	}

	p.metrics.JobSubmitted(kindLabel(kind))
	p.logger.Info("Job submitted",
		slog.String("job_id", job.ID),
		slog.String("job_type", string(kind)),
		slog.String("entry_id", entryID),
	)

	return job.ID, nil
}

// Get reads a job by id. Returns domain.ErrJobNotFound for unknown or
// expired jobs.
func (p *Producer) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return p.store.Get(ctx, jobID)
}

// kindLabel keeps the submitted-jobs metric to the built-in kinds, since
// any type string is accepted here
func kindLabel(kind domain.Kind) string {
	if kind.Builtin() {
		return string(kind)
	}
	return metrics.UnknownType
}
