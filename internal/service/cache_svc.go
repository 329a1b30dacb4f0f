package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/pipeline"
	"github.com/vidnest/vidnest-go/pkg/hash"
)

// DefaultListingTTL bounds how stale a cached listing page may get.
const DefaultListingTTL = time.Minute

const videoGenerationKey = "vidnest:videos:gen"

// CacheService is a Redis cache-aside layer for anonymous video listing
// pages. Every video write bumps a generation counter that is part of each
// page key, so stale pages are never read again and expire on their own.
type CacheService struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client and every
// operation becomes a no-op.
func NewCacheService(redisURL string, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{ttl: ttl}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{ttl: ttl}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{ttl: ttl}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, ttl: ttl}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(rdb *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &CacheService{rdb: rdb, ttl: ttl}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetVideoPage returns a cached listing page for the given parameters.
func (c *CacheService) GetVideoPage(ctx context.Context, params ...string) (pipeline.Page, bool) {
	if c == nil || c.rdb == nil {
		return pipeline.Page{}, false
	}
	key, err := c.pageKey(ctx, params)
	if err != nil {
		log.Debug().Err(err).Msg("cache: generation lookup failed")
		return pipeline.Page{}, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Msg("cache: get video page failed")
		}
		metrics.CacheMisses.Inc()
		return pipeline.Page{}, false
	}
	var page pipeline.Page
	if err := json.Unmarshal(data, &page); err != nil {
		metrics.CacheMisses.Inc()
		return pipeline.Page{}, false
	}
	metrics.CacheHits.Inc()
	return page, true
}

// SetVideoPage stores a listing page. Failures are logged and ignored.
func (c *CacheService) SetVideoPage(ctx context.Context, page pipeline.Page, params ...string) {
	if c == nil || c.rdb == nil {
		return
	}
	key, err := c.pageKey(ctx, params)
	if err != nil {
		return
	}
	b, err := json.Marshal(page)
	if err != nil {
		log.Warn().Err(err).Msg("cache: encode video page failed")
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("cache: set video page failed")
	}
}

// InvalidateVideos retires every cached listing page.
func (c *CacheService) InvalidateVideos(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, videoGenerationKey).Err(); err != nil {
		log.Warn().Err(err).Msg("cache: invalidate videos failed")
	}
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) pageKey(ctx context.Context, params []string) (string, error) {
	gen, err := c.rdb.Get(ctx, videoGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return videoPageKey(gen, params), nil
}

func videoPageKey(gen int64, params []string) string {
	return "vidnest:videos:list:" + strconv.FormatInt(gen, 10) + ":" + hash.CacheKey(params...)
}
