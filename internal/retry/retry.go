// Package retry implements a reusable bounded exponential backoff
// policy. Both external service adapters (embedding, generation) wrap
// their calls with the same policy rather than duplicating retry
// loops inline.
package retry

import (
	"context"
	"time"

	"github.com/Pranavharshans/pdf-rag/internal/logger"
)

// Policy configures retry behaviour.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the
	// first call. Values below 1 are treated as 1.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64

	// Retryable reports whether an error is worth retrying. A nil
	// Retryable retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the policy used when configuration does not
// override it: 3 attempts, 500ms initial delay doubling up to 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs op until it succeeds, returns a non-retryable error, the
// attempts are exhausted, or ctx is cancelled. The last error is
// returned unwrapped so callers can classify it.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.InitialDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = op(ctx); err == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.Warn("attempt %d/%d failed, retrying in %s: %v", attempt, attempts, delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return err
}
