package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/store"
)

type PlaylistRepo struct {
	collection
}

func NewPlaylistRepo(s store.Store, engine *pipeline.Engine) *PlaylistRepo {
	return &PlaylistRepo{collection: newCollection(s, engine, store.Playlists)}
}

var playlistTotals = []pipeline.Derivation{
	pipeline.Count("totalVideos", "videos"),
	pipeline.Sum("totalViews", "videos", "views"),
}

func (r *PlaylistRepo) Insert(ctx context.Context, p model.Playlist) (model.Playlist, error) {
	d, err := r.insert(ctx, p.Document())
	if err != nil {
		return model.Playlist{}, err
	}
	return model.PlaylistFromDocument(d), nil
}

func (r *PlaylistRepo) FindByID(ctx context.Context, id bson.ObjectID) (model.Playlist, error) {
	d, err := r.byID(ctx, id)
	if err != nil {
		return model.Playlist{}, err
	}
	return model.PlaylistFromDocument(d), nil
}

func (r *PlaylistRepo) Update(ctx context.Context, id bson.ObjectID, u store.Update) (model.Playlist, error) {
	d, err := r.update(ctx, id, u)
	if err != nil {
		return model.Playlist{}, err
	}
	return model.PlaylistFromDocument(d), nil
}

func (r *PlaylistRepo) Delete(ctx context.Context, id bson.ObjectID) (int64, error) {
	return r.deleteByID(ctx, id)
}

// ListForUser pages through the playlists of owner with video and view
// totals.
func (r *PlaylistRepo) ListForUser(ctx context.Context, owner bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	p := pipeline.New("user_playlists", store.Playlists).
		Match(store.Eq("owner", owner)).
		Join(pipeline.Relation{
			From:         store.Videos,
			LocalField:   "videos",
			ForeignField: document.IDField,
			As:           "videos",
			Fields:       []string{document.IDField, "views"},
		}).
		Derive(playlistTotals...).
		Project(document.IDField, "name", "description", "totalVideos", "totalViews", document.UpdatedAtField)
	return r.engine.Paginate(ctx, p, bson.ObjectID{}, req)
}

// Detail returns the playlist with its published videos in playlist order
// and its owner.
func (r *PlaylistRepo) Detail(ctx context.Context, id bson.ObjectID) (document.Document, error) {
	p := pipeline.New("playlist_detail", store.Playlists).
		Match(store.Eq(document.IDField, id)).
		Join(
			pipeline.Relation{
				From:         store.Videos,
				LocalField:   "videos",
				ForeignField: document.IDField,
				As:           "playlistVideos",
				Match:        published,
				Fields:       videoCard,
			},
			pipeline.Relation{
				From:         store.Users,
				LocalField:   "owner",
				ForeignField: document.IDField,
				As:           "owner",
				Single:       true,
				Fields:       ownerSummary,
			},
		).
		Derive(
			pipeline.Count("totalVideos", "playlistVideos"),
			pipeline.Sum("totalViews", "playlistVideos", "views"),
		).
		Project(
			document.IDField, "name", "description", document.CreatedAtField, document.UpdatedAtField,
			"totalVideos", "totalViews", "playlistVideos", "owner",
		)
	return r.engine.One(ctx, p, bson.ObjectID{})
}
