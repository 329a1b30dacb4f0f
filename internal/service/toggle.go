package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/store"
)

// toggleOps binds the toggle algorithm to one relationship kind.
type toggleOps struct {
	kind   string
	find   func(ctx context.Context) (document.Document, error)
	create func(ctx context.Context) (document.Document, error)
	remove func(ctx context.Context, id bson.ObjectID) (int64, error)
}

// toggle removes the relationship when present and creates it otherwise.
// Concurrent toggles of the same pair are settled by the store's unique
// key: losing the insert race returns the row that won it, and deleting a
// row someone else already removed still counts as removed.
func toggle(ctx context.Context, ops toggleOps) (model.ToggleResult, error) {
	existing, err := ops.find(ctx)
	switch {
	case err == nil:
		n, err := ops.remove(ctx, existing.ID())
		if err != nil {
			return model.ToggleResult{}, err
		}
		if n == 0 {
			log.Debug().Str("kind", ops.kind).Msg("toggle: relationship already removed")
		}
		metrics.TogglesTotal.WithLabelValues(ops.kind, "removed").Inc()
		return model.ToggleResult{Created: false}, nil

	case !errors.Is(err, store.ErrNotFound):
		return model.ToggleResult{}, err
	}

	created, err := ops.create(ctx)
	if errors.Is(err, store.ErrDuplicate) {
		created, err = ops.find(ctx)
		if errors.Is(err, store.ErrNotFound) {
			// inserted and removed again by concurrent toggles
			metrics.TogglesTotal.WithLabelValues(ops.kind, "removed").Inc()
			return model.ToggleResult{Created: false}, nil
		}
	}
	if err != nil {
		return model.ToggleResult{}, err
	}
	metrics.TogglesTotal.WithLabelValues(ops.kind, "created").Inc()
	return model.ToggleResult{Created: true, Record: created}, nil
}
