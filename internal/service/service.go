// Package service holds the business rules behind each endpoint: input
// checks, ownership, toggles, cascades and media workflows.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/store"
)

// notFound turns a missing document into a NotFound error about what.
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return err
}

func requireAuth(p model.Principal) error {
	if p.IsAnonymous() {
		return apperr.Unauthenticated("Authentication required")
	}
	return nil
}

func requireOwner(p model.Principal, owner bson.ObjectID, what string) error {
	if err := requireAuth(p); err != nil {
		return err
	}
	if !p.Owns(owner) {
		return apperr.Forbidden("You are not allowed to modify this %s", what)
	}
	return nil
}

// requireText trims s and rejects it when nothing is left.
func requireText(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("%s is required", field)
	}
	return s, nil
}

func requireID(id bson.ObjectID, what string) error {
	if id.IsZero() {
		return apperr.Validation("Invalid %s id", what)
	}
	return nil
}

// emptyIfNil keeps JSON arrays from rendering as null.
func emptyIfNil(docs []document.Document) []document.Document {
	if docs == nil {
		return []document.Document{}
	}
	return docs
}

// discardMedia deletes media that lost its owning document. It runs even
// when ctx is already cancelled.
func discardMedia(ctx context.Context, m media.Store, refs []string) {
	if len(refs) == 0 {
		return
	}
	if _, err := media.DeleteAll(context.WithoutCancel(ctx), m, refs); err != nil {
		log.Warn().Err(err).Strs("refs", refs).Msg("media left behind")
	}
}
