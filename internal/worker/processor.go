package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
	"github.com/cuongbtq/jobqueue/internal/metrics"
)

// handleEntry processes one queue entry. It returns an error only when the
// entry must be retried: the job store could not be reached, so neither
// the job's record nor the entry was touched.
func (w *Worker) handleEntry(ctx context.Context, entry domain.QueueEntry) error {
	// In-flight work is finished even when shutdown is requested
	ctx = context.WithoutCancel(ctx)

	if entry.JobID == "" {
		w.logger.Warn("Skipping malformed queue entry",
			slog.String("entry_id", entry.ID),
		)
		w.metrics.JobProcessed(w.typeLabel(entry.Type), metrics.OutcomeSkipped)
		w.ack(ctx, entry)
		return nil
	}

	job, err := w.store.Get(ctx, entry.JobID)
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		w.logger.Warn("Job record not found, skipping",
			slog.String("job_id", entry.JobID),
			slog.String("entry_id", entry.ID),
		)
		w.metrics.JobProcessed(w.typeLabel(entry.Type), metrics.OutcomeMissing)
		w.ack(ctx, entry)
		return nil

	case errors.Is(err, domain.ErrCorruptRecord):
		w.logger.Error("Job record is corrupt",
			slog.String("job_id", entry.JobID),
			slog.String("error", err.Error()),
		)
		job = domain.NewJob(entry.JobID, entry.Type, nil)
		return w.finish(ctx, entry, job, 0, domain.NewProcessingError(domain.FailureInvalidInput, err))

	case err != nil:
		return fmt.Errorf("failed to load job %s: %w", entry.JobID, err)
	}

	if job.Status.IsTerminal() {
		w.logger.Info("Job already finished, skipping",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
		)
		w.metrics.JobProcessed(w.typeLabel(entry.Type), metrics.OutcomeSkipped)
		w.ack(ctx, entry)
		return nil
	}

	kind := entry.Type
	if kind == "" {
		kind = job.Type
	}

	w.logger.Info("Processing job",
		slog.String("job_id", job.ID),
		slog.String("job_type", string(kind)),
		slog.String("entry_id", entry.ID),
	)

	start := time.Now()
	result, runErr := w.execute(ctx, kind, job.Input)
	w.metrics.ObserveDuration(w.typeLabel(kind), time.Since(start))

	return w.finish(ctx, entry, job, result, runErr)
}

// execute dispatches to the handler registered for kind
func (w *Worker) execute(ctx context.Context, kind domain.Kind, input domain.Input) (float64, error) {
	h, ok := w.registry.Lookup(kind)
	if !ok {
		return 0, domain.UnknownTypeError(kind)
	}
	return w.run(kind, h)(ctx, input)
}

// finish records the outcome, notifies and acknowledges the entry
func (w *Worker) finish(ctx context.Context, entry domain.QueueEntry, job *domain.Job, result float64, runErr error) error {
	outcome := metrics.OutcomeComplete

	if runErr != nil {
		outcome = metrics.OutcomeFailed
		message := runErr.Error()

		w.logger.Error("Job execution failed",
			slog.String("job_id", job.ID),
			slog.String("job_type", string(job.Type)),
			slog.String("failure_kind", failureKind(runErr)),
			slog.String("error", message),
		)

		if err := w.store.UpdateError(ctx, job.ID, message); err != nil {
			return w.writeFailed(ctx, entry, err)
		}
		job.Status = domain.JobStatusFailed
		job.Error = message
	} else {
		if err := w.store.UpdateResult(ctx, job.ID, result); err != nil {
			return w.writeFailed(ctx, entry, err)
		}
		job.Status = domain.JobStatusComplete
		job.Result = &result

		w.logger.Info("Job completed successfully",
			slog.String("job_id", job.ID),
			slog.String("job_type", string(job.Type)),
			slog.Float64("result", result),
		)
	}

	w.notify(ctx, job)
	w.ack(ctx, entry)
	w.metrics.JobProcessed(w.typeLabel(job.Type), outcome)
	return nil
}

// writeFailed decides what a failed outcome write means. A record that
// expired while the job ran is dropped, anything else is retried.
func (w *Worker) writeFailed(ctx context.Context, entry domain.QueueEntry, err error) error {
	if errors.Is(err, domain.ErrJobNotFound) {
		w.logger.Warn("Job record expired before outcome was written",
			slog.String("job_id", entry.JobID),
		)
		w.metrics.JobProcessed(w.typeLabel(entry.Type), metrics.OutcomeMissing)
		w.ack(ctx, entry)
		return nil
	}
	return fmt.Errorf("failed to record outcome of job %s: %w", entry.JobID, err)
}

func (w *Worker) notify(ctx context.Context, job *domain.Job) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, job); err != nil {
		w.logger.Warn("Failed to publish job completion",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ack removes the entry from the queue. Removal is idempotent and a failure
// only leaves an already processed entry behind the read position.
func (w *Worker) ack(ctx context.Context, entry domain.QueueEntry) {
	if err := w.queue.Delete(ctx, entry.ID); err != nil {
		w.metrics.AckFailed()
		w.logger.Error("Failed to remove queue entry",
			slog.String("entry_id", entry.ID),
			slog.String("job_id", entry.JobID),
			slog.String("error", err.Error()),
		)
	}
}

// typeLabel maps a kind read from the queue to a metric label. Kinds
// without a handler share one label.
func (w *Worker) typeLabel(kind domain.Kind) string {
	if _, ok := w.registry.Lookup(kind); ok {
		return string(kind)
	}
	return metrics.UnknownType
}

func failureKind(err error) string {
	var pe *domain.ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return domain.FailureExecution
}
