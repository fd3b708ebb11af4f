package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

// Middleware wraps a handler for one job kind
type Middleware func(kind domain.Kind, next HandlerFunc) HandlerFunc

// Chain composes middleware. The first one is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(kind domain.Kind, next HandlerFunc) HandlerFunc {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](kind, h)
		}
		return h
	}
}

// Recover turns a handler panic into a failed job
func Recover(logger *slog.Logger) Middleware {
	return func(kind domain.Kind, next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, input domain.Input) (result float64, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job handler panicked",
						slog.String("job_type", string(kind)),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					result = 0
					err = domain.NewProcessingError(domain.FailurePanic,
						fmt.Errorf("panic in %s job: %v", kind, r))
				}
			}()
			return next(ctx, input)
		}
	}
}

// Timeout bounds handler execution. A zero duration leaves it unbounded.
func Timeout(d time.Duration) Middleware {
	return func(_ domain.Kind, next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, input domain.Input) (float64, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, input)
		}
	}
}

// SimulatedLatency waits d before running the handler, standing in for
// real work duration
func SimulatedLatency(d time.Duration) Middleware {
	return func(kind domain.Kind, next HandlerFunc) HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, input domain.Input) (float64, error) {
			timer := time.NewTimer(d)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return 0, domain.NewProcessingError(domain.FailureExecution,
					fmt.Errorf("%s job canceled: %w", kind, ctx.Err()))
			}
			return next(ctx, input)
		}
	}
}
