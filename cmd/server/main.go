package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vidnest/vidnest-go/internal/config"
	"github.com/vidnest/vidnest-go/internal/db"
	"github.com/vidnest/vidnest-go/internal/handler"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/middleware"
	"github.com/vidnest/vidnest-go/internal/resilience"
	"github.com/vidnest/vidnest-go/internal/router"
	"github.com/vidnest/vidnest-go/internal/service"
	"github.com/vidnest/vidnest-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		middleware.InitLogger("info", "vidnest-api")
		log.Fatal().Err(err).Msg("load config")
	}
	middleware.InitLogger(cfg.LogLevel, "vidnest-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, pool, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}
	defer closeStore()
	metrics.Register(pool)

	st := store.NewResilient(base, resilience.Policy{
		Name:     "store",
		Attempts: cfg.StoreAttempts,
		Timeout:  cfg.StoreTimeout,
	})

	rawMedia, mediaProbe, err := openMedia(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.MediaDriver).Msg("open media store")
	}
	m := media.NewResilient(rawMedia, resilience.Policy{
		Name:     "media",
		Attempts: cfg.MediaAttempts,
		Timeout:  cfg.MediaTimeout,
	}, resilience.BreakerConfig{
		ConsecutiveFailures: cfg.MediaBreakerFailures,
		OpenTimeout:         cfg.MediaBreakerOpen,
	})

	cache := service.NewCacheService(cfg.RedisURL, cfg.ListingCacheTTL)
	defer cache.Close()

	h, users := router.Build(router.Deps{
		Store:      st,
		Media:      m,
		Cache:      cache,
		BcryptCost: cfg.BcryptCost,
		StoreProbe: base,
		MediaProbe: mediaProbe,
	})

	app := fiber.New(fiber.Config{
		AppName:      "vidnest API",
		ServerHeader: "vidnest",
		BodyLimit:    cfg.BodyLimitBytes,
		ErrorHandler: handler.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	router.Setup(app, h, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		IPHashSalt:  cfg.IPHashSalt,
		Identity: middleware.IdentityConfig{
			Secret:   []byte(cfg.JWTSecret),
			Resolver: users,
		},
		RateLimits: true,
	})

	if cfg.OrphanSweepInterval > 0 {
		worker := service.NewOrphanWorker(st, cfg.OrphanSweepInterval)
		go worker.Start(ctx)
		defer worker.Stop()
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Environment).
		Str("store", cfg.StoreDriver).Str("media", cfg.MediaDriver).
		Msg("vidnest backend starting")
	if err := app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited")
}

// openStore connects the configured entity store and prepares its schema.
// The pool is non-nil only for Postgres.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *pgxpool.Pool, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return pg, pool, pool.Close, nil

	case config.StoreMongo:
		database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		mg := store.NewMongo(database)
		closeFn := func() {
			if err := database.Client().Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		if err := mg.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		return mg, nil, closeFn, nil

	default:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemory(), nil, func() {}, nil
	}
}

// openMedia connects the configured media store. The probe is nil when the
// store has nothing to ping.
func openMedia(ctx context.Context, cfg *config.Config) (media.Store, handler.Pinger, error) {
	if cfg.MediaDriver == config.MediaMemory {
		log.Warn().Msg("using in-memory media store; uploads are lost on restart")
		return media.NewMemory(), nil, nil
	}
	mc, err := media.NewMinio(ctx, media.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MediaPublicURL,
	})
	if err != nil {
		return nil, nil, err
	}
	return mc, mc, nil
}
