package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Tweet is a short text post with optional images.
type Tweet struct {
	ID        bson.ObjectID `json:"_id"`
	Content   string        `json:"content"`
	Images    []string      `json:"images"`
	Owner     bson.ObjectID `json:"owner"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func TweetFromDocument(d document.Document) Tweet {
	images := d.Strings("images")
	if images == nil {
		images = []string{}
	}
	return Tweet{
		ID:        d.ID(),
		Content:   d.String("content"),
		Images:    images,
		Owner:     d.ObjectID("owner"),
		CreatedAt: d.Time(document.CreatedAtField),
		UpdatedAt: d.Time(document.UpdatedAtField),
	}
}

func (t Tweet) Document() document.Document {
	images := make([]any, len(t.Images))
	for i, ref := range t.Images {
		images[i] = ref
	}
	d := document.Document{
		"content": t.Content,
		"images":  images,
		"owner":   t.Owner,
	}
	setIdentity(d, t.ID, t.CreatedAt, t.UpdatedAt)
	return d
}

func (t Tweet) MediaRefs() []string {
	return nonEmpty(t.Images...)
}
