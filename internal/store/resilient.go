package store

import (
	"context"
	"errors"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/resilience"
)

// Resilient bounds every call to the wrapped store with a timeout. Reads
// are retried; writes get a single attempt. Failures other than ErrNotFound
// and ErrDuplicate surface as retryable upstream errors.
type Resilient struct {
	next   Store
	policy resilience.Policy
}

func NewResilient(next Store, policy resilience.Policy) *Resilient {
	if policy.Name == "" {
		policy.Name = "store"
	}
	return &Resilient{next: next, policy: policy}
}

func (r *Resilient) Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error) {
	var out document.Document
	err := resilience.Do(ctx, r.policy.Once(), func(ctx context.Context) error {
		var err error
		out, err = r.next.Insert(ctx, c, d)
		return classify(err)
	})
	return out, surface(err, "insert", c)
}

func (r *Resilient) Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error) {
	var out []document.Document
	err := resilience.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		out, err = r.next.Find(ctx, c, f)
		return classify(err)
	})
	return out, surface(err, "find", c)
}

func (r *Resilient) FindOne(ctx context.Context, c Collection, f Filter) (document.Document, error) {
	var out document.Document
	err := resilience.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		out, err = r.next.FindOne(ctx, c, f)
		return classify(err)
	})
	return out, surface(err, "find", c)
}

func (r *Resilient) Update(ctx context.Context, c Collection, f Filter, u Update) (document.Document, error) {
	var out document.Document
	err := resilience.Do(ctx, r.policy.Once(), func(ctx context.Context) error {
		var err error
		out, err = r.next.Update(ctx, c, f, u)
		return classify(err)
	})
	return out, surface(err, "update", c)
}

// Delete is retried: deleting by filter is idempotent.
func (r *Resilient) Delete(ctx context.Context, c Collection, f Filter) (int64, error) {
	var n int64
	err := resilience.Do(ctx, r.policy, func(ctx context.Context) error {
		var err error
		n, err = r.next.Delete(ctx, c, f)
		return classify(err)
	})
	return n, surface(err, "delete", c)
}

func (r *Resilient) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func classify(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return resilience.Permanent(err)
	}
	return err
}

func surface(err error, op string, c Collection) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
		return err
	}
	return apperr.Upstream(err, "Store unavailable (%s %s)", op, c)
}
