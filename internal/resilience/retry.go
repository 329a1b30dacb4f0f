// Package resilience bounds calls to the entity store and media store with
// per-attempt timeouts, bounded retries and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidnest/vidnest-go/internal/metrics"
)

// Policy describes how a single logical call is attempted.
type Policy struct {
	Name       string
	Attempts   int
	Timeout    time.Duration
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultPolicy is used when configuration leaves fields unset.
var DefaultPolicy = Policy{
	Attempts:   3,
	Timeout:    5 * time.Second,
	Backoff:    100 * time.Millisecond,
	MaxBackoff: 2 * time.Second,
}

// Once returns a copy of p that makes a single attempt. Used for writes
// that are not safe to repeat.
func (p Policy) Once() Policy {
	p.Attempts = 1
	return p
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultPolicy.Attempts
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultPolicy.Timeout
	}
	if p.Backoff <= 0 {
		p.Backoff = DefaultPolicy.Backoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = DefaultPolicy.MaxBackoff
	}
	return p
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, the parent
// context ends, or the attempts are exhausted. Each attempt gets its own
// timeout. Permanent errors are returned unwrapped.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil || attempt == p.Attempts {
			break
		}

		metrics.UpstreamRetries.WithLabelValues(p.Name).Inc()
		log.Debug().Err(err).Str("target", p.Name).Int("attempt", attempt).Msg("retrying upstream call")

		select {
		case <-time.After(backoff(p, attempt)):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", p.Name, ctx.Err())
		}
	}
	return fmt.Errorf("%s failed after %d attempt(s): %w", p.Name, p.Attempts, err)
}

func backoff(p Policy, attempt int) time.Duration {
	d := p.Backoff << (attempt - 1)
	if d > p.MaxBackoff || d <= 0 {
		return p.MaxBackoff
	}
	return d
}
