package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
)

type LikeService struct {
	likes    *repository.LikeRepo
	videos   *VideoService
	comments *repository.CommentRepo
	tweets   *repository.TweetRepo
}

func NewLikeService(likes *repository.LikeRepo, videos *VideoService, comments *repository.CommentRepo, tweets *repository.TweetRepo) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets}
}

func (s *LikeService) ToggleVideo(ctx context.Context, p model.Principal, videoID bson.ObjectID) (model.ToggleResult, error) {
	if err := requireAuth(p); err != nil {
		return model.ToggleResult{}, err
	}
	if _, err := s.videos.visible(ctx, p, videoID); err != nil {
		return model.ToggleResult{}, err
	}
	return s.toggle(ctx, p, model.TargetVideo, videoID)
}

func (s *LikeService) ToggleComment(ctx context.Context, p model.Principal, commentID bson.ObjectID) (model.ToggleResult, error) {
	if err := requireAuth(p); err != nil {
		return model.ToggleResult{}, err
	}
	if err := requireID(commentID, "comment"); err != nil {
		return model.ToggleResult{}, err
	}
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return model.ToggleResult{}, notFound(err, "Comment")
	}
	return s.toggle(ctx, p, model.TargetComment, commentID)
}

func (s *LikeService) ToggleTweet(ctx context.Context, p model.Principal, tweetID bson.ObjectID) (model.ToggleResult, error) {
	if err := requireAuth(p); err != nil {
		return model.ToggleResult{}, err
	}
	if err := requireID(tweetID, "tweet"); err != nil {
		return model.ToggleResult{}, err
	}
	if _, err := s.tweets.FindByID(ctx, tweetID); err != nil {
		return model.ToggleResult{}, notFound(err, "Tweet")
	}
	return s.toggle(ctx, p, model.TargetTweet, tweetID)
}

// LikedVideos pages through the published videos the principal liked.
func (s *LikeService) LikedVideos(ctx context.Context, p model.Principal, req pipeline.PageRequest) (pipeline.Page, error) {
	if err := requireAuth(p); err != nil {
		return pipeline.Page{}, err
	}
	return s.likes.LikedVideos(ctx, p.ID, req)
}

func (s *LikeService) toggle(ctx context.Context, p model.Principal, kind model.TargetKind, target bson.ObjectID) (model.ToggleResult, error) {
	return toggle(ctx, toggleOps{
		kind: string(kind) + "_like",
		find: func(ctx context.Context) (document.Document, error) {
			return s.likes.Find(ctx, kind, target, p.ID)
		},
		create: func(ctx context.Context) (document.Document, error) {
			return s.likes.Insert(ctx, model.Like{Kind: kind, Target: target, LikedBy: p.ID})
		},
		remove: s.likes.Delete,
	})
}
