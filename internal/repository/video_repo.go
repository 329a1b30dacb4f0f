package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type VideoRepo struct {
	collection
}

func NewVideoRepo(s store.Store, engine *pipeline.Engine) *VideoRepo {
	return &VideoRepo{collection: newCollection(s, engine, store.Videos)}
}

// ListParams selects the public video listing.
type ListParams struct {
	Query string
	// OwnerID limits the listing to one channel when set.
	OwnerID bson.ObjectID
	// IncludeUnpublished shows the owner's unpublished videos too. Only
	// meaningful together with OwnerID.
	IncludeUnpublished bool
	Sort               pipeline.Sort
}

func (r *VideoRepo) Insert(ctx context.Context, v model.Video) (model.Video, error) {
	d, err := r.insert(ctx, v.Document())
	if err != nil {
		return model.Video{}, err
	}
	return model.VideoFromDocument(d), nil
}

// FindByID returns the stored video regardless of its published state.
func (r *VideoRepo) FindByID(ctx context.Context, id bson.ObjectID) (model.Video, error) {
	d, err := r.byID(ctx, id)
	if err != nil {
		return model.Video{}, err
	}
	return model.VideoFromDocument(d), nil
}

func (r *VideoRepo) Update(ctx context.Context, id bson.ObjectID, u store.Update) (model.Video, error) {
	d, err := r.update(ctx, id, u)
	if err != nil {
		return model.Video{}, err
	}
	return model.VideoFromDocument(d), nil
}

// IncrementViews bumps the view counter by one.
func (r *VideoRepo) IncrementViews(ctx context.Context, id bson.ObjectID) error {
	_, err := r.update(ctx, id, store.Update{Inc: map[string]int64{"views": 1}})
	return err
}

// Exists reports whether a video with id is stored. Unpublished videos
// only count when onlyPublished is false.
func (r *VideoRepo) Exists(ctx context.Context, id bson.ObjectID, onlyPublished bool) (bool, error) {
	f := store.ByID(id)
	if onlyPublished {
		f = f.And(published...)
	}
	_, err := r.store.FindOne(ctx, r.name, f)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List is the searchable, sortable listing. Videos whose owner no longer
// exists are left out.
func (r *VideoRepo) List(ctx context.Context, params ListParams, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("video_list", store.Videos).
		Search(params.Query, "title", "description").
		SortBy(params.Sort).
		Join(pipeline.Relation{
			From:         store.Users,
			LocalField:   "owner",
			ForeignField: document.IDField,
			As:           "ownerDetails",
			Single:       true,
			Required:     true,
			Fields:       []string{document.IDField, "username", "avatar", "fullName"},
		}).
		Project(fields(videoCard, []string{"ownerDetails"})...)

	if !params.OwnerID.IsZero() {
		p.Match(store.Eq("owner", params.OwnerID))
	}
	if params.OwnerID.IsZero() || !params.IncludeUnpublished {
		p.Match(published...)
	}
	return r.engine.Paginate(ctx, p, bson.ObjectID{}, req)
}

// Detail is the single video view: like totals, the requester's like and
// the owner's channel summary.
func (r *VideoRepo) Detail(ctx context.Context, id, requester bson.ObjectID) (document.Document, error) {
	p := pipeline.New("video_detail", store.Videos).
		Match(store.Eq(document.IDField, id)).
		Join(
			pipeline.Relation{
				From:         store.Likes,
				LocalField:   document.IDField,
				ForeignField: "video",
				As:           "likes",
				Fields:       []string{"likedBy"},
			},
			pipeline.Relation{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "owner",
				Single:       true,
				Nested: []pipeline.Relation{{
					From:         store.Subscriptions,
					LocalField:   document.IDField,
					ForeignField: "channel",
					As:           "subscribers",
					Fields:       []string{"subscriber"},
				}},
				Derive: []pipeline.Derivation{
					pipeline.Count("subscribersCount", "subscribers"),
					pipeline.RequesterIn("isSubscribed", "subscribers", "subscriber"),
				},
				Fields: fields(ownerSummary, []string{"subscribersCount", "isSubscribed"}),
			},
			pipeline.Relation{
				From:         store.Comments,
				LocalField:   document.IDField,
				ForeignField: "video",
				As:           "comments",
				Fields:       []string{document.IDField},
			},
		).
		Derive(
			pipeline.Count("likesCount", "likes"),
			pipeline.RequesterIn("isLiked", "likes", "likedBy"),
			pipeline.Count("commentsCount", "comments"),
		).
		Project(fields(videoCard, []string{"likesCount", "isLiked", "commentsCount"})...)

	return r.engine.One(ctx, p, requester)
}
