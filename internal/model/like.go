package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// TargetKind is what a Like points at. Exactly one target field is set on
// a stored like.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
	TargetTweet   TargetKind = "tweet"
)

type Like struct {
	ID        bson.ObjectID `json:"_id"`
	Kind      TargetKind    `json:"-"`
	Target    bson.ObjectID `json:"-"`
	LikedBy   bson.ObjectID `json:"likedBy"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func LikeFromDocument(d document.Document) Like {
	l := Like{
		ID:        d.ID(),
		LikedBy:   d.ObjectID("likedBy"),
		CreatedAt: d.Time(document.CreatedAtField),
		UpdatedAt: d.Time(document.UpdatedAtField),
	}
	for _, k := range []TargetKind{TargetVideo, TargetComment, TargetTweet} {
		if id := d.ObjectID(string(k)); !id.IsZero() {
			l.Kind, l.Target = k, id
			break
		}
	}
	return l
}

func (l Like) Document() document.Document {
	d := document.Document{
		string(l.Kind): l.Target,
		"likedBy":      l.LikedBy,
	}
	setIdentity(d, l.ID, l.CreatedAt, l.UpdatedAt)
	return d
}
