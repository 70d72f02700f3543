// Package retry provides exponential backoff for external provider calls.
package retry

import (
	"context"
	"time"
)

// Config configures exponential backoff retry behavior
type Config struct {
	MaxAttempts int           // Maximum number of attempts
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Maximum delay between attempts
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultConfig returns sensible defaults for API retry
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// Do executes fn with exponential backoff. Retry is skipped on context
// cancellation.
func Do[T any](ctx context.Context, config Config, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
