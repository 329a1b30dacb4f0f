package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type SubscriptionRepo struct {
	collection
}

func NewSubscriptionRepo(s store.Store, engine *pipeline.Engine) *SubscriptionRepo {
	return &SubscriptionRepo{collection: newCollection(s, engine, store.Subscriptions)}
}

func (r *SubscriptionRepo) Find(ctx context.Context, subscriber, channel bson.ObjectID) (document.Document, error) {
	return r.store.FindOne(ctx, r.name, store.Where(
		store.Eq("subscriber", subscriber),
		store.Eq("channel", channel),
	))
}

// Insert stores a subscription. An existing pair surfaces as
// store.ErrDuplicate.
func (r *SubscriptionRepo) Insert(ctx context.Context, s model.Subscription) (document.Document, error) {
	return r.insert(ctx, s.Document())
}

func (r *SubscriptionRepo) Delete(ctx context.Context, id bson.ObjectID) (int64, error) {
	return r.deleteByID(ctx, id)
}

// Subscribers pages through the users subscribed to channel. Each carries
// its own subscriber total, whether channel subscribes back, and whether
// requester subscribes to it.
func (r *SubscriptionRepo) Subscribers(ctx context.Context, channel, requester bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("channel_subscribers", store.Subscriptions).
		Match(store.Eq("channel", channel)).
		Join(pipeline.Relation{
			From:         store.Users,
			LocalField:   "subscriber",
			ForeignField: document.IDField,
			As:           "subscriber",
			Single:       true,
			Required:     true,
			Nested: []pipeline.Relation{{
				From:         store.Subscriptions,
				LocalField:   document.IDField,
				ForeignField: "channel",
				As:           "subscribedToSubscriber",
				Fields:       []string{"subscriber"},
			}},
			// The totals read the joined list before it is replaced by the
			// subscribe-back flag.
			Derive: []pipeline.Derivation{
				pipeline.Count("subscribersCount", "subscribedToSubscriber"),
				pipeline.RequesterIn("isSubscribed", "subscribedToSubscriber", "subscriber"),
				pipeline.ValueIn("subscribedToSubscriber", "subscribedToSubscriber", "subscriber", channel),
			},
			Fields: fields(ownerSummary, []string{"subscribedToSubscriber", "subscribersCount", "isSubscribed"}),
		}).
		Project("subscriber")
	return r.engine.Paginate(ctx, p, requester, req)
}

// SubscribedChannels pages through the channels subscriber follows, each
// with its most recent published video.
func (r *SubscriptionRepo) SubscribedChannels(ctx context.Context, subscriber bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("subscribed_channels", store.Subscriptions).
		Match(store.Eq("subscriber", subscriber)).
		Join(pipeline.Relation{
			From:         store.Users,
			LocalField:   "channel",
			ForeignField: document.IDField,
			As:           "subscribedChannel",
			Single:       true,
			Required:     true,
			Nested: []pipeline.Relation{{
				From:         store.Videos,
				LocalField:   document.IDField,
				ForeignField: "owner",
				As:           "videos",
				Match:        published,
			}},
			Derive: []pipeline.Derivation{pipeline.Last("latestVideo", "videos")},
			Fields: fields(ownerSummary, prefixed("latestVideo", videoCard)),
		}).
		Project("subscribedChannel")
	return r.engine.Paginate(ctx, p, subscriber, req)
}

func prefixed(prefix string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = prefix + "." + p
	}
	return out
}
