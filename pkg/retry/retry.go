package retry

import (
	"context"
	"math"
	"time"
)

// Config holds configuration for retry behavior
type Config struct {
	MaxAttempts int           // Maximum number of attempts, including the first
	BaseDelay   time.Duration // Base delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
	Multiplier  float64       // Backoff multiplier
}

// DefaultConfig returns a default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    12 * time.Second,
		Multiplier:  2.0,
	}
}

// Func represents a function that can be retried
type Func func() error

// IsRetryableFunc decides whether an error should trigger another attempt
type IsRetryableFunc func(error) bool

// Do retries fn with exponential backoff until it succeeds, the error is
// non-retryable, attempts are exhausted, or the context is cancelled.
func Do(ctx context.Context, cfg Config, fn Func, isRetryable IsRetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if !isRetryable(err) {
				return err
			}
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt)))
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
