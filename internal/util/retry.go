package util

import (
	"context"
	"time"
)

// Retry calls fn up to maxAttempts times, doubling the pause between
// attempts starting from baseDelay. It returns nil as soon as one call
// succeeds, the last error once the attempts are exhausted, or ctx.Err()
// if the context is cancelled while waiting to retry.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
