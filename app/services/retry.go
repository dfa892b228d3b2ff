package services

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry schedule applied at platform call sites. The policy
// object keeps retry decisions explicit and out of business logic: transient platform
// errors are NOT retried here (the scheduler's cooldown owns those); only errors the
// predicate accepts, typically transport failures, are re-attempted.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     []time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries transport-level failures twice with short backoff.
// Platform error envelopes are never retried by this policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Second, 3 * time.Second},
		Retryable: func(err error) bool {
			_, isPlatform := AsPlatformError(err)
			return !isPlatform
		},
	}
}

// Do runs fn up to MaxAttempts times, sleeping the scheduled backoff between
// attempts. It returns the last error when all attempts fail and stops early when
// the context is cancelled or the error is not retryable.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := time.Second
		if len(p.Backoff) > 0 {
			idx := i
			if idx >= len(p.Backoff) {
				idx = len(p.Backoff) - 1
			}
			wait = p.Backoff[idx]
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
