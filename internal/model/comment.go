package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

type Comment struct {
	ID        bson.ObjectID `json:"_id"`
	Content   string        `json:"content"`
	Video     bson.ObjectID `json:"video"`
	Owner     bson.ObjectID `json:"owner"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func CommentFromDocument(d document.Document) Comment {
	return Comment{
		ID:        d.ID(),
		Content:   d.String("content"),
		Video:     d.ObjectID("video"),
		Owner:     d.ObjectID("owner"),
		CreatedAt: d.Time(document.CreatedAtField),
		UpdatedAt: d.Time(document.UpdatedAtField),
	}
}

func (c Comment) Document() document.Document {
	d := document.Document{
		"content": c.Content,
		"video":   c.Video,
		"owner":   c.Owner,
	}
	setIdentity(d, c.ID, c.CreatedAt, c.UpdatedAt)
	return d
}
