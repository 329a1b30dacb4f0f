package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/store"
)

type CommentService struct {
	comments *repository.CommentRepo
	videos   *VideoService
	deleter  *Deleter
}

func NewCommentService(comments *repository.CommentRepo, videos *VideoService, deleter *Deleter) *CommentService {
	return &CommentService{comments: comments, videos: videos, deleter: deleter}
}

// List pages through the comments of a video the principal can see.
func (s *CommentService) List(ctx context.Context, p model.Principal, videoID bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	if _, err := s.videos.visible(ctx, p, videoID); err != nil {
		return pipeline.Page{}, err
	}
	return s.comments.ListForVideo(ctx, videoID, p.ID, req)
}

func (s *CommentService) Add(ctx context.Context, p model.Principal, videoID bson.ObjectID, req model.CommentRequest) (model.Comment, error) {
	if err := requireAuth(p); err != nil {
		return model.Comment{}, err
	}
	content, err := requireText(req.Content, "Content")
	if err != nil {
		return model.Comment{}, err
	}
	if _, err := s.videos.visible(ctx, p, videoID); err != nil {
		return model.Comment{}, err
	}
	return s.comments.Insert(ctx, model.Comment{Content: content, Video: videoID, Owner: p.ID})
}

func (s *CommentService) Update(ctx context.Context, p model.Principal, id bson.ObjectID, req model.CommentRequest) (model.Comment, error) {
	if err := requireAuth(p); err != nil {
		return model.Comment{}, err
	}
	content, err := requireText(req.Content, "Content")
	if err != nil {
		return model.Comment{}, err
	}
	if _, err := s.owned(ctx, p, id); err != nil {
		return model.Comment{}, err
	}
	c, err := s.comments.UpdateContent(ctx, id, content)
	return c, notFound(err, "Comment")
}

// Delete removes the comment and its likes.
func (s *CommentService) Delete(ctx context.Context, p model.Principal, id bson.ObjectID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	_, err := s.deleter.Delete(ctx, store.Comments, id)
	return notFound(err, "Comment")
}

func (s *CommentService) owned(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Comment, error) {
	if err := requireAuth(p); err != nil {
		return model.Comment{}, err
	}
	if err := requireID(id, "comment"); err != nil {
		return model.Comment{}, err
	}
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return model.Comment{}, notFound(err, "Comment")
	}
	if err := requireOwner(p, c.Owner, "comment"); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}
