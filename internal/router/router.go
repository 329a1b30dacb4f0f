// Package router wires middleware and handlers onto the fiber app.
package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/vidnest/vidnest-go/internal/handler"
	"github.com/vidnest/vidnest-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Video        *handler.VideoHandler
	Comment      *handler.CommentHandler
	Like         *handler.LikeHandler
	Tweet        *handler.TweetHandler
	Subscription *handler.SubscriptionHandler
	Playlist     *handler.PlaylistHandler
	User         *handler.UserHandler
	Health       *handler.HealthHandler
}

// Options configures the middleware stack.
type Options struct {
	CORSOrigins string
	// IPHashSalt salts the client IP hash in request logs.
	IPHashSalt string
	Identity   middleware.IdentityConfig
	// RateLimits disables the per-route limiters when false. Tests leave
	// it off.
	RateLimits bool
}

// limiters groups the rate limiters shared by routes of one kind.
type limiters struct {
	read, write, toggle, upload, register fiber.Handler
}

func newLimiters(enabled bool) limiters {
	if !enabled {
		pass := func(c fiber.Ctx) error { return c.Next() }
		return limiters{pass, pass, pass, pass, pass}
	}
	return limiters{
		read:     middleware.NewReadRateLimiter().Handler(),
		write:    middleware.NewWriteRateLimiter().Handler(),
		toggle:   middleware.NewToggleRateLimiter().Handler(),
		upload:   middleware.NewUploadRateLimiter().Handler(),
		register: middleware.NewRegisterRateLimiter().Handler(),
	}
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(opts.CORSOrigins))
	app.Use(middleware.NewRequestLogger(opts.IPHashSalt))
	app.Use(middleware.NewIdentity(opts.Identity))

	// Probes and metrics sit outside the API group.
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	rl := newLimiters(opts.RateLimits)
	auth := middleware.RequireAuth()
	api := app.Group("/api/v1")

	// Video routes
	api.Get("/videos", rl.read, h.Video.List)
	api.Post("/videos", auth, rl.upload, h.Video.Publish)
	api.Get("/videos/:videoId", rl.read, h.Video.Get)
	api.Patch("/videos/toggle/publish/:videoId", auth, rl.write, h.Video.TogglePublish)
	api.Patch("/videos/:videoId", auth, rl.upload, h.Video.Update)
	api.Delete("/videos/:videoId", auth, rl.write, h.Video.Delete)

	// Comment routes
	api.Get("/comments/:videoId", rl.read, h.Comment.List)
	api.Post("/comments/:videoId", auth, rl.write, h.Comment.Add)
	api.Patch("/comments/c/:commentId", auth, rl.write, h.Comment.Update)
	api.Delete("/comments/c/:commentId", auth, rl.write, h.Comment.Delete)

	// Like routes
	api.Post("/likes/toggle/v/:videoId", auth, rl.toggle, h.Like.ToggleVideo)
	api.Post("/likes/toggle/c/:commentId", auth, rl.toggle, h.Like.ToggleComment)
	api.Post("/likes/toggle/t/:tweetId", auth, rl.toggle, h.Like.ToggleTweet)
	api.Get("/likes/videos", auth, rl.read, h.Like.LikedVideos)

	// Tweet routes
	api.Post("/tweets", auth, rl.write, h.Tweet.Create)
	api.Get("/tweets/user/:userId", rl.read, h.Tweet.ListForUser)
	api.Patch("/tweets/:tweetId", auth, rl.write, h.Tweet.Update)
	api.Delete("/tweets/:tweetId", auth, rl.write, h.Tweet.Delete)

	// Subscription routes
	api.Post("/subscriptions/c/:channelId", auth, rl.toggle, h.Subscription.Toggle)
	api.Get("/subscriptions/c/:channelId", rl.read, h.Subscription.Subscribers)
	api.Get("/subscriptions/u/:subscriberId", rl.read, h.Subscription.SubscribedChannels)

	// Playlist routes
	api.Post("/playlist", auth, rl.write, h.Playlist.Create)
	api.Get("/playlist/user/:userId", rl.read, h.Playlist.ListForUser)
	api.Patch("/playlist/add/:videoId/:playlistId", auth, rl.write, h.Playlist.AddVideo)
	api.Patch("/playlist/remove/:videoId/:playlistId", auth, rl.write, h.Playlist.RemoveVideo)
	api.Get("/playlist/:playlistId", rl.read, h.Playlist.Get)
	api.Patch("/playlist/:playlistId", auth, rl.write, h.Playlist.Update)
	api.Delete("/playlist/:playlistId", auth, rl.write, h.Playlist.Delete)

	// User routes
	api.Post("/users/register", rl.register, h.User.Register)
	api.Get("/users/c/:username", rl.read, h.User.ChannelProfile)
	api.Get("/users/me", auth, rl.read, h.User.Current)
	api.Patch("/users/account", auth, rl.write, h.User.UpdateAccount)
	api.Get("/users/history", auth, rl.read, h.User.WatchHistory)
	api.Patch("/users/avatar", auth, rl.upload, h.User.UpdateAvatar)
	api.Patch("/users/cover-image", auth, rl.upload, h.User.UpdateCoverImage)
	api.Delete("/users/me", auth, rl.write, h.User.DeleteAccount)
}
