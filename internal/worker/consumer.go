package worker

import (
	"context"
	"log/slog"
	"time"
)

// consume reads the queue from position until the worker is stopped. The
// position only moves past an entry once that entry has been handled, so
// an entry whose handling hit a transient store error is read again.
func (w *Worker) consume(ctx context.Context, position string) {
	failures := 0

	for {
		if w.stopping(ctx) {
			return
		}

		entries, err := w.queue.Read(ctx, position, w.batchSize, w.blockTimeout)
		if err != nil {
			if w.stopping(ctx) {
				return
			}
			failures++
			w.metrics.QueueReadFailed()
			delay := w.backoff.Delay(failures)
			w.logger.Error("Failed to read from queue",
				slog.String("position", position),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", delay),
			)
			w.sleep(ctx, delay)
			continue
		}

		if len(entries) == 0 {
			failures = 0
			continue
		}

		for _, entry := range entries {
			if w.stopping(ctx) {
				return
			}

			if err := w.handleEntry(ctx, entry); err != nil {
				failures++
				delay := w.backoff.Delay(failures)
				w.logger.Error("Failed to handle queue entry, will retry",
					slog.String("entry_id", entry.ID),
					slog.String("job_id", entry.JobID),
					slog.String("error", err.Error()),
					slog.Duration("retry_in", delay),
				)
				w.sleep(ctx, delay)
				break
			}

			failures = 0
			position = entry.ID
		}
	}
}

// stopping reports whether ctx is done or Stop was called
func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stopChan:
		return true
	default:
		return false
	}
}

// sleep waits d or until the worker is stopped
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-w.stopChan:
	}
}
