package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{Name: "test", Attempts: 3, Timeout: time.Second, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("not found")
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		return Permanent(sentinel)
	})
	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fast, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
	assert.Equal(t, 3, calls)
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	p := fast
	p.Attempts = 1
	p.Timeout = 5 * time.Millisecond
	err := Do(context.Background(), p, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoHonoursParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fast, func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffIsCapped(t *testing.T) {
	p := Policy{Backoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, backoff(p, 1))
	assert.Equal(t, 20*time.Millisecond, backoff(p, 2))
	assert.Equal(t, 25*time.Millisecond, backoff(p, 3))
}

func TestBreakerOpensAndRejects(t *testing.T) {
	b := NewBreaker("test-open", BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errors.New("down") })
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.False(t, called)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerIgnoresPermanentErrors(t *testing.T) {
	b := NewBreaker("test-permanent", BreakerConfig{ConsecutiveFailures: 1, OpenTimeout: time.Minute})
	_ = b.Execute(func() error { return Permanent(errors.New("bad input")) })
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestCallStopsRetryingWhenBreakerOpens(t *testing.T) {
	b := NewBreaker("test-call", BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	p := fast
	p.Attempts = 5

	calls := 0
	err := Call(context.Background(), p, b, func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}
