package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Playlist is an ordered set of videos.
type Playlist struct {
	ID          bson.ObjectID   `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Owner       bson.ObjectID   `json:"owner"`
	Videos      []bson.ObjectID `json:"videos"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func PlaylistFromDocument(d document.Document) Playlist {
	videos := d.ObjectIDs("videos")
	if videos == nil {
		videos = []bson.ObjectID{}
	}
	return Playlist{
		ID:          d.ID(),
		Name:        d.String("name"),
		Description: d.String("description"),
		Owner:       d.ObjectID("owner"),
		Videos:      videos,
		CreatedAt:   d.Time(document.CreatedAtField),
		UpdatedAt:   d.Time(document.UpdatedAtField),
	}
}

func (p Playlist) Document() document.Document {
	videos := make([]any, len(p.Videos))
	for i, id := range p.Videos {
		videos[i] = id
	}
	d := document.Document{
		"name":        p.Name,
		"description": p.Description,
		"owner":       p.Owner,
		"videos":      videos,
	}
	setIdentity(d, p.ID, p.CreatedAt, p.UpdatedAt)
	return d
}
