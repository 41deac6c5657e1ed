package main

import (
	"context"
	"log/slog"
	"time"
)

// retryWithBackoff calls fn up to attempts times, doubling the delay after each
// retryable failure. Errors that are not NetworkErrors are returned immediately.
func retryWithBackoff[T any](ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == attempts {
			break
		}

		slog.Debug("Request failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
		delay *= 2
	}

	return zero, lastErr
}
