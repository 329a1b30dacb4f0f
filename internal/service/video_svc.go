package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/store"
)

type VideoService struct {
	videos  *repository.VideoRepo
	users   *repository.UserRepo
	media   media.Store
	deleter *Deleter
	cache   *CacheService
}

func NewVideoService(videos *repository.VideoRepo, users *repository.UserRepo, m media.Store, deleter *Deleter, cache *CacheService) *VideoService {
	return &VideoService{videos: videos, users: users, media: m, deleter: deleter, cache: cache}
}

// ListVideosQuery holds the listing parameters as received.
type ListVideosQuery struct {
	Query    string
	SortBy   string
	SortType string
	UserID   bson.ObjectID
}

// List returns one page of the video listing. Owners listing their own
// channel also see unpublished videos. Anonymous pages are cached.
func (s *VideoService) List(ctx context.Context, p model.Principal, q ListVideosQuery, req pipeline.PageRequest) (pipeline.Page, error) {
	sort, err := pipeline.ParseSort(q.SortBy, q.SortType)
	if err != nil {
		return pipeline.Page{}, err
	}
	params := repository.ListParams{
		Query:              strings.TrimSpace(q.Query),
		OwnerID:            q.UserID,
		IncludeUnpublished: !q.UserID.IsZero() && p.Owns(q.UserID),
		Sort:               sort,
	}

	var cacheKey []string
	if p.IsAnonymous() {
		cacheKey = []string{
			params.Query, sort.Key, strconv.FormatBool(sort.Desc), q.UserID.Hex(),
			strconv.Itoa(req.Page), strconv.Itoa(req.Limit),
		}
		if page, ok := s.cache.GetVideoPage(ctx, cacheKey...); ok {
			return page, nil
		}
	}

	page, err := s.videos.List(ctx, params, req)
	if err != nil {
		return pipeline.Page{}, err
	}
	if cacheKey != nil {
		s.cache.SetVideoPage(ctx, page, cacheKey...)
	}
	return page, nil
}

// Get returns the video view and records the view. Unpublished videos
// are only found by their owner.
func (s *VideoService) Get(ctx context.Context, p model.Principal, id bson.ObjectID) (document.Document, error) {
	v, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if err := s.videos.IncrementViews(ctx, v.ID); err != nil {
		return nil, notFound(err, "Video")
	}
	if !p.IsAnonymous() {
		if err := s.users.AddToWatchHistory(ctx, p.ID, v.ID); err != nil {
			log.Warn().Err(err).Str("video", v.ID.Hex()).Msg("video: watch history not updated")
		}
	}

	d, err := s.videos.Detail(ctx, v.ID, p.ID)
	if err != nil {
		return nil, notFound(err, "Video")
	}
	return d, nil
}

// Publish uploads the video file and thumbnail concurrently, then stores
// the video. Uploaded media is removed again when the store write fails.
func (s *VideoService) Publish(ctx context.Context, p model.Principal, req model.PublishVideoRequest, videoFile, thumbnail *media.Object) (model.Video, error) {
	if err := requireAuth(p); err != nil {
		return model.Video{}, err
	}
	title, err := requireText(req.Title, "Title")
	if err != nil {
		return model.Video{}, err
	}
	description, err := requireText(req.Description, "Description")
	if err != nil {
		return model.Video{}, err
	}
	if videoFile == nil {
		return model.Video{}, apperr.Validation("Video file is required")
	}
	if thumbnail == nil {
		return model.Video{}, apperr.Validation("Thumbnail is required")
	}
	if req.Duration < 0 {
		return model.Video{}, apperr.Validation("Duration must not be negative")
	}

	refs, err := media.PutAll(ctx, s.media, []media.Object{*videoFile, *thumbnail})
	if err != nil {
		return model.Video{}, err
	}

	v, err := s.videos.Insert(ctx, model.Video{
		Title:       title,
		Description: description,
		VideoFile:   refs[0],
		Thumbnail:   refs[1],
		Duration:    req.Duration,
		IsPublished: true,
		Owner:       p.ID,
	})
	if err != nil {
		discardMedia(ctx, s.media, refs)
		return model.Video{}, err
	}

	s.cache.InvalidateVideos(ctx)
	log.Info().Str("video", v.ID.Hex()).Str("owner", p.ID.Hex()).Msg("video: published")
	return v, nil
}

// Update changes title, description and optionally the thumbnail. The new
// thumbnail is uploaded first; the old one is deleted only once the video
// is saved.
func (s *VideoService) Update(ctx context.Context, p model.Principal, id bson.ObjectID, req model.UpdateVideoRequest, thumbnail *media.Object) (model.Video, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return model.Video{}, err
	}

	set := map[string]any{}
	if t := strings.TrimSpace(req.Title); t != "" {
		set["title"] = t
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		set["description"] = d
	}
	if len(set) == 0 && thumbnail == nil {
		return model.Video{}, apperr.Validation("Nothing to update")
	}

	var newRef string
	if thumbnail != nil {
		newRef, err = s.media.Put(ctx, *thumbnail)
		if err != nil {
			return model.Video{}, err
		}
		set["thumbnail"] = newRef
	}

	updated, err := s.videos.Update(ctx, id, store.Update{Set: set})
	if err != nil {
		if newRef != "" {
			discardMedia(ctx, s.media, []string{newRef})
		}
		return model.Video{}, notFound(err, "Video")
	}
	if newRef != "" && v.Thumbnail != "" {
		discardMedia(ctx, s.media, []string{v.Thumbnail})
	}

	s.cache.InvalidateVideos(ctx)
	return updated, nil
}

// Delete removes the video with its likes, comments and media, and drops
// it from playlists and watch histories.
func (s *VideoService) Delete(ctx context.Context, p model.Principal, id bson.ObjectID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	report, err := s.deleter.Delete(ctx, store.Videos, id)
	if err != nil {
		return notFound(err, "Video")
	}
	s.cache.InvalidateVideos(ctx)
	log.Info().Str("video", id.Hex()).
		Int64("likes", report.Deleted[store.Likes]).
		Int64("comments", report.Deleted[store.Comments]).
		Msg("video: deleted")
	return nil
}

// TogglePublish flips the published flag.
func (s *VideoService) TogglePublish(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Video, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return model.Video{}, err
	}
	updated, err := s.videos.Update(ctx, id, store.Update{Set: map[string]any{"isPublished": !v.IsPublished}})
	if err != nil {
		return model.Video{}, notFound(err, "Video")
	}
	s.cache.InvalidateVideos(ctx)
	return updated, nil
}

// visible loads a video the principal may see.
func (s *VideoService) visible(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Video, error) {
	if err := requireID(id, "video"); err != nil {
		return model.Video{}, err
	}
	v, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return model.Video{}, notFound(err, "Video")
	}
	if !v.IsPublished && !p.Owns(v.Owner) {
		return model.Video{}, apperr.NotFound("Video not found")
	}
	return v, nil
}

// owned loads a video the principal may modify.
func (s *VideoService) owned(ctx context.Context, p model.Principal, id bson.ObjectID) (model.Video, error) {
	if err := requireAuth(p); err != nil {
		return model.Video{}, err
	}
	if err := requireID(id, "video"); err != nil {
		return model.Video{}, err
	}
	v, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return model.Video{}, notFound(err, "Video")
	}
	if err := requireOwner(p, v.Owner, "video"); err != nil {
		return model.Video{}, err
	}
	return v, nil
}
