package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type CommentRepo struct {
	collection
}

func NewCommentRepo(s store.Store, engine *pipeline.Engine) *CommentRepo {
	return &CommentRepo{collection: newCollection(s, engine, store.Comments)}
}

func (r *CommentRepo) Insert(ctx context.Context, c model.Comment) (model.Comment, error) {
	d, err := r.insert(ctx, c.Document())
	if err != nil {
		return model.Comment{}, err
	}
	return model.CommentFromDocument(d), nil
}

func (r *CommentRepo) FindByID(ctx context.Context, id bson.ObjectID) (model.Comment, error) {
	d, err := r.byID(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	return model.CommentFromDocument(d), nil
}

func (r *CommentRepo) UpdateContent(ctx context.Context, id bson.ObjectID, content string) (model.Comment, error) {
	d, err := r.update(ctx, id, store.Update{Set: map[string]any{"content": content}})
	if err != nil {
		return model.Comment{}, err
	}
	return model.CommentFromDocument(d), nil
}

// ListForVideo pages through a video's comments, newest first, with their
// author and like totals relative to requester.
func (r *CommentRepo) ListForVideo(ctx context.Context, videoID, requester bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("video_comments", store.Comments).
		Match(store.Eq("video", videoID)).
		Join(
			pipeline.Relation{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "owner",
				Single:       true,
				Fields:       ownerSummary,
			},
			pipeline.Relation{
				From:         store.Likes,
				LocalField:   document.IDField,
				ForeignField: "comment",
				As:           "likes",
				Fields:       []string{"likedBy"},
			},
		).
		Derive(
			pipeline.Count("likesCount", "likes"),
			pipeline.RequesterIn("isLiked", "likes", "likedBy"),
		).
		Project(document.IDField, "content", document.CreatedAtField, "likesCount", "owner", "isLiked")
	return r.engine.Paginate(ctx, p, requester, req)
}
