package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond}}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_RetriesUntilSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ReturnsLastErrorWhenExhausted(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, Backoff: []time.Duration{time.Millisecond}}

	boom := errors.New("connection reset")
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicy_NonRetryableStopsImmediately(t *testing.T) {
	p := DefaultRetryPolicy()
	p.Backoff = []time.Duration{time.Millisecond}

	// Platform error envelopes are never retried; cooldown handling owns those
	pe := &PlatformError{HTTPStatus: 400, Code: 613, Message: "rate limit", Endpoint: "act_1/adsets"}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return pe
	})
	assert.ErrorIs(t, err, error(pe))
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_TransportErrorRetriedByDefault(t *testing.T) {
	p := DefaultRetryPolicy()
	p.Backoff = []time.Duration{time.Millisecond, time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("dial tcp: i/o timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ContextCancelStopsBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Backoff: []time.Duration{time.Hour}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := p.Do(ctx, func() error { return errors.New("connection reset") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	p := RetryPolicy{}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
