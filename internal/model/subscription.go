package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Subscription links a subscriber to a channel. Both are users.
type Subscription struct {
	ID         bson.ObjectID `json:"_id"`
	Subscriber bson.ObjectID `json:"subscriber"`
	Channel    bson.ObjectID `json:"channel"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func SubscriptionFromDocument(d document.Document) Subscription {
	return Subscription{
		ID:         d.ID(),
		Subscriber: d.ObjectID("subscriber"),
		Channel:    d.ObjectID("channel"),
		CreatedAt:  d.Time(document.CreatedAtField),
		UpdatedAt:  d.Time(document.UpdatedAtField),
	}
}

func (s Subscription) Document() document.Document {
	d := document.Document{
		"subscriber": s.Subscriber,
		"channel":    s.Channel,
	}
	setIdentity(d, s.ID, s.CreatedAt, s.UpdatedAt)
	return d
}
