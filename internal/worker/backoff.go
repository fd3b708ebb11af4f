package worker

import (
	"math"
	"time"
)

// exponentialBackoff doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type exponentialBackoff struct {
	initial time.Duration
	max     time.Duration
}

func newExponentialBackoff(initial, maxDelay time.Duration) *exponentialBackoff {
	return &exponentialBackoff{initial: initial, max: maxDelay}
}

// Delay returns the wait before retry attempt n (1-indexed)
func (b *exponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.initial) * math.Pow(2, float64(attempt-1))
	if b.max > 0 && d > float64(b.max) {
		return b.max
	}
	return time.Duration(d)
}
