package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
)

type SubscriptionService struct {
	subscriptions *repository.SubscriptionRepo
	users         *repository.UserRepo
}

func NewSubscriptionService(subscriptions *repository.SubscriptionRepo, users *repository.UserRepo) *SubscriptionService {
	return &SubscriptionService{subscriptions: subscriptions, users: users}
}

// Toggle subscribes the principal to channel, or unsubscribes when already
// subscribed. Subscribing to oneself is rejected.
func (s *SubscriptionService) Toggle(ctx context.Context, p model.Principal, channel bson.ObjectID) (model.ToggleResult, error) {
	if err := requireAuth(p); err != nil {
		return model.ToggleResult{}, err
	}
	if err := s.channelExists(ctx, channel); err != nil {
		return model.ToggleResult{}, err
	}
	if p.Owns(channel) {
		return model.ToggleResult{}, apperr.Validation("You cannot subscribe to your own channel")
	}

	return toggle(ctx, toggleOps{
		kind: "subscription",
		find: func(ctx context.Context) (document.Document, error) {
			return s.subscriptions.Find(ctx, p.ID, channel)
		},
		create: func(ctx context.Context) (document.Document, error) {
			return s.subscriptions.Insert(ctx, model.Subscription{Subscriber: p.ID, Channel: channel})
		},
		remove: s.subscriptions.Delete,
	})
}

func (s *SubscriptionService) Subscribers(ctx context.Context, p model.Principal, channel bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	if err := s.channelExists(ctx, channel); err != nil {
		return pipeline.Page{}, err
	}
	return s.subscriptions.Subscribers(ctx, channel, p.ID, req)
}

func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriber bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	if err := requireID(subscriber, "subscriber"); err != nil {
		return pipeline.Page{}, err
	}
	if _, err := s.users.FindByID(ctx, subscriber); err != nil {
		return pipeline.Page{}, notFound(err, "User")
	}
	return s.subscriptions.SubscribedChannels(ctx, subscriber, req)
}

func (s *SubscriptionService) channelExists(ctx context.Context, channel bson.ObjectID) error {
	if err := requireID(channel, "channel"); err != nil {
		return err
	}
	_, err := s.users.FindByID(ctx, channel)
	return notFound(err, "Channel")
}
