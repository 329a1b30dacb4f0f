package router

import (
	"github.com/vidnest/vidnest-go/internal/handler"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/internal/repository"
	"github.com/vidnest/vidnest-go/internal/service"
	"github.com/vidnest/vidnest-go/internal/store"
)

// Deps are the backends the API runs on.
type Deps struct {
	Store      store.Store
	Media      media.Store
	Cache      *service.CacheService
	BcryptCost int

	// Probed by /health/ready. MediaProbe may be nil.
	StoreProbe handler.Pinger
	MediaProbe handler.Pinger
}

// Build assembles repositories, services and handlers over d. The user
// service is returned as well since it resolves token subjects.
func Build(d Deps) (*Handlers, *service.UserService) {
	engine := pipeline.NewEngine(d.Store)

	userRepo := repository.NewUserRepo(d.Store, engine)
	videoRepo := repository.NewVideoRepo(d.Store, engine)
	commentRepo := repository.NewCommentRepo(d.Store, engine)
	tweetRepo := repository.NewTweetRepo(d.Store, engine)
	deleter := service.NewDeleter(d.Store, d.Media)

	users := service.NewUserService(userRepo, d.Media, deleter, d.Cache, d.BcryptCost)
	videos := service.NewVideoService(videoRepo, userRepo, d.Media, deleter, d.Cache)
	comments := service.NewCommentService(commentRepo, videos, deleter)
	likes := service.NewLikeService(repository.NewLikeRepo(d.Store, engine), videos, commentRepo, tweetRepo)
	tweets := service.NewTweetService(tweetRepo, userRepo, d.Media, deleter)
	subscriptions := service.NewSubscriptionService(repository.NewSubscriptionRepo(d.Store, engine), userRepo)
	playlists := service.NewPlaylistService(repository.NewPlaylistRepo(d.Store, engine), videoRepo, userRepo, deleter)

	return &Handlers{
		Video:        handler.NewVideoHandler(videos),
		Comment:      handler.NewCommentHandler(comments),
		Like:         handler.NewLikeHandler(likes),
		Tweet:        handler.NewTweetHandler(tweets),
		Subscription: handler.NewSubscriptionHandler(subscriptions),
		Playlist:     handler.NewPlaylistHandler(playlists),
		User:         handler.NewUserHandler(users),
		Health:       handler.NewHealthHandler(d.StoreProbe, d.MediaProbe, d.Cache.Client()),
	}, users
}
