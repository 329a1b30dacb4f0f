package media

import (
	"context"
	"io"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/resilience"
)

// Resilient guards a media store with a circuit breaker, per-attempt
// timeouts and bounded retries. Uploads are retried only when the body can
// be rewound.
type Resilient struct {
	next    Store
	policy  resilience.Policy
	breaker *resilience.Breaker
}

func NewResilient(next Store, policy resilience.Policy, breaker resilience.BreakerConfig) *Resilient {
	if policy.Name == "" {
		policy.Name = "media"
	}
	return &Resilient{
		next:    next,
		policy:  policy,
		breaker: resilience.NewBreaker(policy.Name, breaker),
	}
}

func (r *Resilient) Put(ctx context.Context, obj Object) (string, error) {
	p := r.policy
	seeker, rewindable := obj.Body.(io.Seeker)
	if !rewindable {
		p = p.Once()
	}

	var ref string
	first := true
	err := resilience.Call(ctx, p, r.breaker, func(ctx context.Context) error {
		if !first {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return resilience.Permanent(err)
			}
		}
		first = false
		var err error
		ref, err = r.next.Put(ctx, obj)
		return err
	})
	if err != nil {
		return "", apperr.Upstream(err, "Media upload failed")
	}
	return ref, nil
}

func (r *Resilient) Delete(ctx context.Context, ref string) (bool, error) {
	var ok bool
	err := resilience.Call(ctx, r.policy, r.breaker, func(ctx context.Context) error {
		var err error
		ok, err = r.next.Delete(ctx, ref)
		return err
	})
	if err != nil {
		return false, apperr.Upstream(err, "Media delete failed")
	}
	return ok, nil
}
