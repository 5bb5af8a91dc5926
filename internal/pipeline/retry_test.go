package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/audiogest/internal/genai"
)

func TestIsRetryable(t *testing.T) {
	re := &genai.RetryableError{StatusCode: 429, Message: "rate limited"}
	if !IsRetryable(re) {
		t.Error("bare RetryableError should be retryable")
	}
	if !IsRetryable(fmt.Errorf("outline call: %w", re)) {
		t.Error("wrapped RetryableError should be retryable")
	}
	if IsRetryable(errors.New("permanent failure")) {
		t.Error("plain error should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
}

func TestBackoff(t *testing.T) {
	for attempt := range 4 {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if d < base {
			t.Errorf("attempt %d: backoff %v below base %v", attempt, d, base)
		}
		if d > base+base/2 {
			t.Errorf("attempt %d: backoff %v exceeds base plus jitter %v", attempt, d, base+base/2)
		}
	}

	// Large attempts stay under the cap plus jitter.
	if d := Backoff(20); d > 45*time.Second {
		t.Errorf("capped backoff too large: %v", d)
	}
}

func TestWithRetry_SuccessFirstTry(t *testing.T) {
	calls := 0
	v, err := withRetry(context.Background(), func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("got (%v, %v), want (42, nil)", v, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_NonRetryableFailsFast(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := withRetry(context.Background(), func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent errors)", calls)
	}
}

func TestWithRetry_CancelledContextStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := withRetry(ctx, func() (int, error) {
		calls++
		return 0, &genai.RetryableError{StatusCode: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
