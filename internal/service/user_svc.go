package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/model"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/store"
)

type UserService struct {
	users      *repository.UserRepo
	media      media.Store
	deleter    *Deleter
	cache      *CacheService
	bcryptCost int
}

func NewUserService(users *repository.UserRepo, m media.Store, deleter *Deleter, cache *CacheService, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, media: m, deleter: deleter, cache: cache, bcryptCost: bcryptCost}
}

// Register creates an account. The avatar is required and uploaded together
// with the optional cover image; both are removed if the account cannot be
// stored.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest, avatar, cover *media.Object) (model.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)
	if username == "" || email == "" || fullName == "" || req.Password == "" {
		return model.User{}, apperr.Validation("All fields are required")
	}
	if avatar == nil {
		return model.User{}, apperr.Validation("Avatar is required")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return model.User{}, apperr.Conflict("User with this username already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, apperr.Internal(err, "Could not register user")
	}

	objs := []media.Object{*avatar}
	if cover != nil {
		objs = append(objs, *cover)
	}
	refs, err := media.PutAll(ctx, s.media, objs)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		Username: username,
		Email:    email,
		FullName: fullName,
		Avatar:   refs[0],
		Password: string(hashed),
	}
	if len(refs) > 1 {
		u.CoverImage = refs[1]
	}

	created, err := s.users.Insert(ctx, u)
	if err != nil {
		discardMedia(ctx, s.media, refs)
		if errors.Is(err, store.ErrDuplicate) {
			return model.User{}, apperr.Conflict("User with this username already exists")
		}
		return model.User{}, err
	}
	log.Info().Str("user", created.ID.Hex()).Msg("user: registered")
	return created, nil
}

// ChannelProfile returns the public channel page of username.
func (s *UserService) ChannelProfile(ctx context.Context, p model.Principal, username string) (document.Document, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperr.Validation("Username is missing")
	}
	d, err := s.users.ChannelProfile(ctx, username, p.ID)
	if err != nil {
		return nil, notFound(err, "Channel")
	}
	return d, nil
}

// WatchHistory returns the principal's watched videos.
func (s *UserService) WatchHistory(ctx context.Context, p model.Principal) ([]document.Document, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	docs, err := s.users.WatchHistory(ctx, p.ID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return emptyIfNil(docs), nil
}

// Current returns the principal's own account.
func (s *UserService) Current(ctx context.Context, p model.Principal) (model.User, error) {
	if err := requireAuth(p); err != nil {
		return model.User{}, err
	}
	u, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		return model.User{}, notFound(err, "User")
	}
	return u, nil
}

// UpdateAccount replaces the principal's full name and email.
func (s *UserService) UpdateAccount(ctx context.Context, p model.Principal, req model.UpdateAccountRequest) (model.User, error) {
	if err := requireAuth(p); err != nil {
		return model.User{}, err
	}
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return model.User{}, apperr.Validation("All fields are required")
	}
	u, err := s.users.Update(ctx, p.ID, store.Update{Set: map[string]any{
		"fullName": fullName,
		"email":    email,
	}})
	if err != nil {
		return model.User{}, notFound(err, "User")
	}
	return u, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, p model.Principal, obj *media.Object) (model.User, error) {
	return s.replaceImage(ctx, p, "avatar", obj)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, p model.Principal, obj *media.Object) (model.User, error) {
	return s.replaceImage(ctx, p, "coverImage", obj)
}

// DeleteAccount removes the principal's account and everything it owns.
func (s *UserService) DeleteAccount(ctx context.Context, p model.Principal) (*CascadeReport, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	report, err := s.deleter.Delete(ctx, store.Users, p.ID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	s.cache.InvalidateVideos(ctx)
	log.Info().Str("user", p.ID.Hex()).
		Int64("videos", report.Deleted[store.Videos]).
		Int("media", report.MediaDeleted).
		Msg("user: account deleted")
	return report, nil
}

// replaceImage uploads the new image, saves it, then deletes the old one.
func (s *UserService) replaceImage(ctx context.Context, p model.Principal, field string, obj *media.Object) (model.User, error) {
	if err := requireAuth(p); err != nil {
		return model.User{}, err
	}
	if obj == nil {
		return model.User{}, apperr.Validation("%s file is missing", field)
	}
	current, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		return model.User{}, notFound(err, "User")
	}

	ref, err := s.media.Put(ctx, *obj)
	if err != nil {
		return model.User{}, err
	}
	updated, err := s.users.Update(ctx, p.ID, store.Update{Set: map[string]any{field: ref}})
	if err != nil {
		discardMedia(ctx, s.media, []string{ref})
		return model.User{}, notFound(err, "User")
	}

	old := current.Avatar
	if field == "coverImage" {
		old = current.CoverImage
	}
	if old != "" {
		discardMedia(ctx, s.media, []string{old})
	}
	return updated, nil
}

// Principal resolves a user id to a principal, failing when the account no
// longer exists.
func (s *UserService) Principal(ctx context.Context, id bson.ObjectID) (model.Principal, error) {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Anonymous, apperr.Unauthenticated("Invalid access token")
		}
		return model.Anonymous, err
	}
	return model.Principal{ID: id}, nil
}
