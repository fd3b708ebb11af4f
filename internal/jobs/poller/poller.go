package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

// Defaults used when a caller passes zero values
const (
	DefaultInterval    = 500 * time.Millisecond
	DefaultMaxAttempts = 60
)

// JobSource reads job state by id. Both the job store and the HTTP client
// implement it.
type JobSource interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

// Poller waits for jobs to reach a terminal status
type Poller struct {
	source JobSource
	logger *slog.Logger
}

// NewPoller creates a new Poller reading from source
func NewPoller(source JobSource, logger *slog.Logger) *Poller {
	return &Poller{
		source: source,
		logger: logger,
	}
}

// AwaitResult polls the job until it is complete or failed, at most
// maxAttempts reads spaced by interval.
//
// A complete job is returned with a nil error. A failed job is returned
// together with a *domain.JobFailedError carrying the stored message.
// An unknown or expired job returns domain.ErrJobNotFound at once, and
// running out of attempts returns domain.ErrPollTimeout.
func (p *Poller) AwaitResult(ctx context.Context, jobID string, interval time.Duration, maxAttempts int) (*domain.Job, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		job, err := p.source.Get(ctx, jobID)
		if err != nil {
			if errors.Is(err, domain.ErrJobNotFound) {
				return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrJobNotFound)
			}
			return nil, fmt.Errorf("failed to poll job %s: %w", jobID, err)
		}

		switch job.Status {
		case domain.JobStatusComplete:
			return job, nil
		case domain.JobStatusFailed:
			return job, &domain.JobFailedError{JobID: jobID, Message: job.Error}
		}

		p.logger.Debug("Job still pending",
			slog.String("job_id", jobID),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
		)

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("job %s after %d attempts: %w", jobID, maxAttempts, domain.ErrPollTimeout)
}
