// Package repository holds per-entity writes against the entity store and the
// view pipelines that back each read endpoint.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

// Field sets shared by several views.
var (
	ownerSummary = []string{document.IDField, "username", "fullName", "avatar"}

	videoCard = []string{
		document.IDField, "videoFile", "thumbnail", "title", "description",
		"duration", "views", "isPublished", "owner", document.CreatedAtField,
	}
)

// published narrows a video relation to published videos.
var published = store.Where(store.Eq("isPublished", true))

// collection is the store access every repository shares.
type collection struct {
	store  store.Store
	engine *pipeline.Engine
	name   store.Collection
}

func newCollection(s store.Store, engine *pipeline.Engine, name store.Collection) collection {
	return collection{store: s, engine: engine, name: name}
}

func (c collection) insert(ctx context.Context, d document.Document) (document.Document, error) {
	return c.store.Insert(ctx, c.name, d)
}

func (c collection) byID(ctx context.Context, id bson.ObjectID) (document.Document, error) {
	return c.store.FindOne(ctx, c.name, store.ByID(id))
}

func (c collection) update(ctx context.Context, id bson.ObjectID, u store.Update) (document.Document, error) {
	return c.store.Update(ctx, c.name, store.ByID(id), u)
}

func (c collection) deleteByID(ctx context.Context, id bson.ObjectID) (int64, error) {
	return c.store.Delete(ctx, c.name, store.ByID(id))
}

func fields(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
