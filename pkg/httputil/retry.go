package httputil

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/gantryhq/gantry/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// Only errors wrapped in [RetryableError] trigger another attempt; anything
// else returns immediately. The delay doubles between attempts, and a
// rate-limited response carrying a Retry-After hint stretches the wait to
// at least that long. When the context ends mid-wait, Retry returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	for remaining := max(attempts, 1); ; remaining-- {
		err := fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		if remaining <= 1 {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryWait(err, delay)):
			delay *= 2
		}
	}
}

// retryWait returns the backoff delay, stretched to a server-provided
// Retry-After hint when one is present.
func retryWait(err error, delay time.Duration) time.Duration {
	var rl *gerrors.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		if hint := time.Duration(rl.RetryAfter) * time.Second; hint > delay {
			return hint
		}
	}
	return delay
}

// RetryWithBackoff is a convenience wrapper around [Retry] with sensible
// defaults: 3 attempts with 1 second initial delay (doubling each retry).
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
