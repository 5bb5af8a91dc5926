package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/audiogest/internal/genai"
)

// IsRetryable checks if a generation error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *genai.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter. Used
// for generation calls; the fetch retry unit keeps its own constant delay.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// withRetry runs fn up to MaxRetries times, backing off between attempts on
// retryable errors and returning immediately on any other error.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := range MaxRetries {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return zero, err
		}
		if attempt < MaxRetries-1 {
			select {
			case <-time.After(Backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}
