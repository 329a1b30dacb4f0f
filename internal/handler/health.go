package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe.
const Version = "1.0.0"

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	media   Pinger
	rdb     *redis.Client
	startAt time.Time
}

// NewHealthHandler builds the probes. media may be nil when the media
// driver has nothing to ping; rdb may be nil when caching is disabled.
func NewHealthHandler(store, media Pinger, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		store:   store,
		media:   media,
		rdb:     rdb,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live (liveness probe).
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready (readiness probe with dependency checks).
// The store is required; media and redis only degrade the report.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	database := checkPinger(ctx, h.store)
	checks := fiber.Map{
		"database": database,
		"media":    checkPinger(ctx, h.media),
		"redis":    checkRedis(ctx, h.rdb),
	}

	overallStatus := "healthy"
	if database["status"] != "up" {
		overallStatus = "unhealthy"
	} else {
		for _, name := range []string{"media", "redis"} {
			if checks[name].(fiber.Map)["status"] == "down" {
				overallStatus = "degraded"
			}
		}
	}

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	}

	status := fiber.StatusOK
	if overallStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}

func checkPinger(ctx context.Context, p Pinger) fiber.Map {
	if p == nil {
		return fiber.Map{"status": "disabled"}
	}
	start := time.Now()
	err := p.Ping(ctx)
	return pingResult(err, time.Since(start))
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{"status": "disabled"}
	}
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	return pingResult(err, time.Since(start))
}

func pingResult(err error, latency time.Duration) fiber.Map {
	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency.Milliseconds(),
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency.Milliseconds(),
	}
}
