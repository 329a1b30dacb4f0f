package service

import (
	"context"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/store"
)

type PlaylistService struct {
	playlists *repository.PlaylistRepo
	videos    *repository.VideoRepo
	users     *repository.UserRepo
	deleter   *Deleter
}

func NewPlaylistService(playlists *repository.PlaylistRepo, videos *repository.VideoRepo, users *repository.UserRepo, deleter *Deleter) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, users: users, deleter: deleter}
}

func (s *PlaylistService) Create(ctx context.Context, p model.Principal, req model.CreatePlaylistRequest) (model.Playlist, error) {
	if err := requireAuth(p); err != nil {
		return model.Playlist{}, err
	}
	name, err := requireText(req.Name, "Name")
	if err != nil {
		return model.Playlist{}, err
	}
	return s.playlists.Insert(ctx, model.Playlist{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Owner:       p.ID,
		Videos:      []bson.ObjectID{},
	})
}

func (s *PlaylistService) ListForUser(ctx context.Context, owner bson.ObjectID, req pipeline.PageRequest) (pipeline.Page, error) {
	if err := requireID(owner, "user"); err != nil {
		return pipeline.Page{}, err
	}
	if _, err := s.users.FindByID(ctx, owner); err != nil {
		return pipeline.Page{}, notFound(err, "User")
	}
	return s.playlists.ListForUser(ctx, owner, req)
}

// Get returns the playlist with its published videos. A playlist without
// published videos is returned with an empty list.
func (s *PlaylistService) Get(ctx context.Context, id bson.ObjectID) (document.Document, error) {
	if err := requireID(id, "playlist"); err != nil {
		return nil, err
	}
	d, err := s.playlists.Detail(ctx, id)
	if err != nil {
		return nil, notFound(err, "Playlist")
	}
	if _, ok := d["playlistVideos"]; !ok {
		d["playlistVideos"] = []document.Document{}
	}
	return d, nil
}

func (s *PlaylistService) Update(ctx context.Context, p model.Principal, id bson.ObjectID, req model.UpdatePlaylistRequest) (model.Playlist, error) {
	if err := requireAuth(p); err != nil {
		return model.Playlist{}, err
	}
	set := map[string]any{}
	if n := strings.TrimSpace(req.Name); n != "" {
		set["name"] = n
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		set["description"] = d
	}
	if len(set) == 0 {
		return model.Playlist{}, apperr.Validation("Nothing to update")
	}
	if _, err := s.owned(ctx, p, id); err != nil {
		return model.Playlist{}, err
	}
	pl, err := s.playlists.Update(ctx, id, store.Update{Set: set})
	return pl, notFound(err, "Playlist")
}

func (s *PlaylistService) Delete(ctx context.Context, p model.Principal, id bson.ObjectID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	_, err := s.deleter.Delete(ctx, store.Playlists, id)
	return notFound(err, "Playlist")
}

// AddVideo appends a video to the playlist once. The video must exist.
func (s *PlaylistService) AddVideo(ctx context.Context, p model.Principal, videoID, playlistID bson.ObjectID) (model.Playlist, error) {
	if err := requireID(videoID, "video"); err != nil {
		return model.Playlist{}, err
	}
	if _, err := s.owned(ctx, p, playlistID); err != nil {
		return model.Playlist{}, err
	}
	v, err := s.videos.FindByID(ctx, videoID)
	if err != nil {
		return model.Playlist{}, notFound(err, "Video")
	}
	if !v.IsPublished && !p.Owns(v.Owner) {
		return model.Playlist{}, apperr.NotFound("Video not found")
	}
	pl, err := s.playlists.Update(ctx, playlistID, store.Update{AddToSet: map[string]any{"videos": videoID}})
	return pl, notFound(err, "Playlist")
}

// RemoveVideo takes a video out of the playlist.
func (s *PlaylistService) RemoveVideo(ctx context.Context, p model.Principal, videoID, playlistID bson.ObjectID) (model.Playlist, error) {
	if err := requireID(videoID, "video"); err != nil {
		return model.Playlist{}, err
	}
	pl, err := s.owned(ctx, p, playlistID)
	if err != nil {
		return model.Playlist{}, err
	}
	if !slices.Contains(pl.Videos, videoID) {
		return model.Playlist{}, apperr.NotFound("Video not found in playlist")
	}
	pl, err = s.playlists.Update(ctx, playlistID, store.Update{Pull: map[string]any{"videos": videoID}})
	return pl, notFound(err, "Playlist")
}

func (s *PlaylistService) owned(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Playlist, error) {
	if err := requireAuth(p); err != nil {
		return model.Playlist{}, err
	}
	if err := requireID(id, "playlist"); err != nil {
		return model.Playlist{}, err
	}
	pl, err := s.playlists.FindByID(ctx, id)
	if err != nil {
		return model.Playlist{}, notFound(err, "Playlist")
	}
	if err := requireOwner(p, pl.Owner, "playlist"); err != nil {
		return model.Playlist{}, err
	}
	return pl, nil
}
