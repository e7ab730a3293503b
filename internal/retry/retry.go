// Package retry provides bounded retry with exponential backoff for remote
// calls. Every operation passed in must be safe to repeat: reads trivially,
// mutations by their own idempotency measures.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Defaults gives three attempts at 500ms, 1s, 2s backoff.
var Defaults = Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

func (c Config) normalized() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = Defaults.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = Defaults.BaseDelay
	}
	return c
}

// Do runs op up to cfg.MaxAttempts times, sleeping BaseDelay * 2^attempt
// after each failure. The zero value of T and the last error are returned
// once attempts are exhausted; the exhaustion is logged with the attempt
// count. Context cancellation cuts the backoff sleep short.
func Do[T any](ctx context.Context, log *zap.Logger, cfg Config, name string, op func() (T, error)) (T, error) {
	cfg = cfg.normalized()

	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		log.Warn("remote call failed",
			zap.String("op", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		delay := cfg.BaseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	log.Error("remote call exhausted retries",
		zap.String("op", name),
		zap.Int("attempts", cfg.MaxAttempts),
		zap.Error(lastErr),
	)
	return zero, lastErr
}
