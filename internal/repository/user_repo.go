package repository

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type UserRepo struct {
	collection
}

func NewUserRepo(s store.Store, engine *pipeline.Engine) *UserRepo {
	return &UserRepo{collection: newCollection(s, engine, store.Users)}
}

// Insert stores a new user. A taken username surfaces as store.ErrDuplicate.
func (r *UserRepo) Insert(ctx context.Context, u model.User) (model.User, error) {
	u.Username = strings.ToLower(u.Username)
	d, err := r.insert(ctx, u.Document())
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDocument(d), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id bson.ObjectID) (model.User, error) {
	d, err := r.byID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDocument(d), nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	d, err := r.store.FindOne(ctx, r.name, store.Where(store.Eq("username", strings.ToLower(username))))
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDocument(d), nil
}

func (r *UserRepo) Update(ctx context.Context, id bson.ObjectID, u store.Update) (model.User, error) {
	d, err := r.update(ctx, id, u)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDocument(d), nil
}

// AddToWatchHistory records a watched video once.
func (r *UserRepo) AddToWatchHistory(ctx context.Context, id, videoID bson.ObjectID) error {
	_, err := r.update(ctx, id, store.Update{AddToSet: map[string]any{"watchHistory": videoID}})
	return err
}

// ChannelProfile is the public channel page of username with subscription
// totals and whether the requester subscribes to it.
func (r *UserRepo) ChannelProfile(ctx context.Context, username string, requester bson.ObjectID) (document.Document, error) {
	p := pipeline.New("channel_profile", store.Users).
		Match(store.Eq("username", strings.ToLower(strings.TrimSpace(username)))).
		Join(
			pipeline.Relation{
				From:         store.Subscriptions,
				LocalField:   document.IDField,
				ForeignField: "channel",
				As:           "subscribers",
				Fields:       []string{"subscriber"},
			},
			pipeline.Relation{
				From:         store.Subscriptions,
				LocalField:   document.IDField,
				ForeignField: "subscriber",
				As:           "subscribedTo",
				Fields:       []string{"channel"},
			},
		).
		Derive(
			pipeline.Count("subscribersCount", "subscribers"),
			pipeline.Count("channelsSubscribedToCount", "subscribedTo"),
			pipeline.RequesterIn("isSubscribed", "subscribers", "subscriber"),
		).
		Project(
			document.IDField, "fullName", "username", "avatar", "coverImage", "email",
			"subscribersCount", "channelsSubscribedToCount", "isSubscribed",
		)
	return r.engine.One(ctx, p, requester)
}

// WatchHistory returns the user's watched videos in the order they were
// first watched, each with its owner. Deleted videos are skipped.
func (r *UserRepo) WatchHistory(ctx context.Context, id bson.ObjectID) ([]document.Document, error) {
	p := pipeline.New("watch_history", store.Users).
		Match(store.Eq(document.IDField, id)).
		Join(pipeline.Relation{
			From:         store.Videos,
			LocalField:   "watchHistory",
			ForeignField: document.IDField,
			As:           "watchHistory",
			Nested: []pipeline.Relation{{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "owner",
				Single:       true,
				Fields:       ownerSummary,
			}},
			Fields: videoCard,
		}).
		Project("watchHistory")

	d, err := r.engine.One(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return d.Docs("watchHistory"), nil
}
