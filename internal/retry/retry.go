// Package retry is the single retry-with-backoff utility shared by every
// call site that talks to an external service. Callers parameterize the
// attempt count, delay schedule, per-attempt timeout and a retryable-error
// predicate instead of hand-rolling their own loops.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Delays is the wait schedule between attempts. If there are more
	// attempts than delays, the last delay repeats.
	Delays []time.Duration

	// AttemptTimeout bounds each individual attempt. Zero means the
	// attempt inherits the caller's context deadline only.
	AttemptTimeout time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Nil means all errors are retryable.
	Retryable func(error) bool
}

// Do runs op under the policy, returning nil on the first success or the
// last error once attempts are exhausted. Waits respect ctx cancellation.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.delay(attempt-1)); err != nil {
				return lastErr
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}

		err := op(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return lastErr
		}
	}

	return lastErr
}

// delay returns the wait before attempt n+1 (n is zero-based).
func (p Policy) delay(n int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if n >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[n]
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
