// Package events publishes job completion events to RabbitMQ so other
// services can react without polling the job store.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

const contentTypeJSON = "application/json"

// Publisher sends a message body to the broker
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Completion is the event body published when a job reaches a terminal status
type Completion struct {
	JobID      string        `json:"job_id"`
	Type       domain.Kind   `json:"type"`
	Status     domain.Status `json:"status"`
	Result     *float64      `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Notifier turns finished jobs into completion events
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewNotifier creates a new Notifier
func NewNotifier(publisher Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Notify publishes the completion event for job
func (n *Notifier) Notify(ctx context.Context, job *domain.Job) error {
	if !job.Status.IsTerminal() {
		return fmt.Errorf("job %s is not finished: %s", job.ID, job.Status)
	}

	body, err := json.Marshal(Completion{
		JobID:      job.ID,
		Type:       job.Type,
		Status:     job.Status,
		Result:     job.Result,
		Error:      job.Error,
		FinishedAt: n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	if err := n.publisher.PublishWithRetry(ctx, body, contentTypeJSON); err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	n.logger.Debug("Job completion published",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)
	return nil
}
