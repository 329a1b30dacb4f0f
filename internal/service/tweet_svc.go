package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/store"
)

// MaxTweetImages caps the images attached to one tweet.
const MaxTweetImages = 4

type TweetService struct {
	tweets  *repository.TweetRepo
	users   *repository.UserRepo
	media   media.Store
	deleter *Deleter
}

func NewTweetService(tweets *repository.TweetRepo, users *repository.UserRepo, m media.Store, deleter *Deleter) *TweetService {
	return &TweetService{tweets: tweets, users: users, media: m, deleter: deleter}
}

// Create stores a tweet with optional images. Images are uploaded first and
// removed again if the tweet cannot be stored.
func (s *TweetService) Create(ctx context.Context, p model.Principal, req model.TweetRequest, images []media.Object) (model.Tweet, error) {
	if err := requireAuth(p); err != nil {
		return model.Tweet{}, err
	}
	content, err := requireText(req.Content, "Content")
	if err != nil {
		return model.Tweet{}, err
	}
	if len(images) > MaxTweetImages {
		return model.Tweet{}, apperr.Validation("At most %d images are allowed", MaxTweetImages)
	}

	var refs []string
	if len(images) > 0 {
		refs, err = media.PutAll(ctx, s.media, images)
		if err != nil {
			return model.Tweet{}, err
		}
	}

	t, err := s.tweets.Insert(ctx, model.Tweet{Content: content, Images: refs, Owner: p.ID})
	if err != nil {
		discardMedia(ctx, s.media, refs)
		return model.Tweet{}, err
	}
	return t, nil
}

func (s *TweetService) ListForUser(ctx context.Context, p model.Principal, owner bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	if err := requireID(owner, "user"); err != nil {
		return pipeline.Page{}, err
	}
	if _, err := s.users.FindByID(ctx, owner); err != nil {
		return pipeline.Page{}, notFound(err, "User")
	}
	return s.tweets.ListForUser(ctx, owner, p.ID, req)
}

func (s *TweetService) Update(ctx context.Context, p model.Principal, id bson.ObjectID, req model.TweetRequest) (model.Tweet, error) {
	if err := requireAuth(p); err != nil {
		return model.Tweet{}, err
	}
	content, err := requireText(req.Content, "Content")
	if err != nil {
		return model.Tweet{}, err
	}
	if _, err := s.owned(ctx, p, id); err != nil {
		return model.Tweet{}, err
	}
	t, err := s.tweets.UpdateContent(ctx, id, content)
	return t, notFound(err, "Tweet")
}

// Delete removes the tweet, its likes and its images.
func (s *TweetService) Delete(ctx context.Context, p model.Principal, id bson.ObjectID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	report, err := s.deleter.Delete(ctx, store.Tweets, id)
	if err != nil {
		return notFound(err, "Tweet")
	}
	log.Debug().Str("tweet", id.Hex()).Int64("likes", report.Deleted[store.Likes]).Msg("tweet: deleted")
	return nil
}

func (s *TweetService) owned(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Tweet, error) {
	if err := requireAuth(p); err != nil {
		return model.Tweet{}, err
	}
	if err := requireID(id, "tweet"); err != nil {
		return model.Tweet{}, err
	}
	t, err := s.tweets.FindByID(ctx, id)
	if err != nil {
		return model.Tweet{}, notFound(err, "Tweet")
	}
	if err := requireOwner(p, t.Owner, "tweet"); err != nil {
		return model.Tweet{}, err
	}
	return t, nil
}
