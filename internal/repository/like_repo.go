package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type LikeRepo struct {
	collection
}

func NewLikeRepo(s store.Store, engine *pipeline.Engine) *LikeRepo {
	return &LikeRepo{collection: newCollection(s, engine, store.Likes)}
}

func likeFilter(kind model.TargetKind, target, by bson.ObjectID) store.Filter {
	return store.Where(store.Eq(string(kind), target), store.Eq("likedBy", by))
}

// Find returns the like by on target, or store.ErrNotFound.
func (r *LikeRepo) Find(ctx context.Context, kind model.TargetKind, target, by bson.ObjectID) (document.Document, error) {
	return r.store.FindOne(ctx, r.name, likeFilter(kind, target, by))
}

// Insert stores a like. A like already present surfaces as
// store.ErrDuplicate.
func (r *LikeRepo) Insert(ctx context.Context, l model.Like) (document.Document, error) {
	return r.insert(ctx, l.Document())
}

func (r *LikeRepo) Delete(ctx context.Context, id bson.ObjectID) (int64, error) {
	return r.deleteByID(ctx, id)
}

// LikedVideos pages through the published videos user has liked, most
// recently liked first.
func (r *LikeRepo) LikedVideos(ctx context.Context, user bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("liked_videos", store.Likes).
		Match(store.Eq("likedBy", user), store.Exists("video")).
		Join(pipeline.Relation{
			From:         store.Videos,
			LocalField:   "video",
			ForeignField: document.IDField,
			As:           "likedVideo",
			Single:       true,
			Required:     true,
			Match:        published,
			Nested: []pipeline.Relation{{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "ownerDetails",
				Single:       true,
				Required:     true,
				Fields:       []string{document.IDField, "username", "fullName", "avatar"},
			}},
			Fields: fields(videoCard, []string{"ownerDetails"}),
		}).
		Project("likedVideo")
	return r.engine.Paginate(ctx, p, user, req)
}
