package middleware

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/pkg/hash"
)

// InitLogger sets up the global zerolog logger with structured JSON output.
// Level is parsed from the given string (e.g. "debug", "info", "warn", "error").
func InitLogger(level, service string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ipLogHashLen is how many hex characters of the salted IP hash are logged.
const ipLogHashLen = 12

// hashIPForLog produces a short, irreversible hash prefix of the IP address
// for log correlation without storing raw PII.
func hashIPForLog(ip, salt string) string {
	return hash.HashIP(ip, salt)[:ipLogHashLen]
}

// SanitizePath replaces identifiers and usernames in the path with
// placeholders so logs and metric labels stay low-cardinality.
func SanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := range parts {
		if i == 0 {
			continue
		}
		if _, err := bson.ObjectIDFromHex(parts[i]); err == nil {
			parts[i] = ":id"
			continue
		}
		if i >= 2 && parts[i-1] == "c" && parts[i-2] == "users" {
			parts[i] = ":username"
		}
	}
	return strings.Join(parts, "/")
}

// StatusOf returns the HTTP status an error returned from a handler is
// rendered with.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return apperr.KindOf(err).Status()
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON via zerolog. Raw IPs are hashed with ipSalt and dynamic
// path segments are sanitized.
func NewRequestLogger(ipSalt string) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}

		evt := log.Info()
		if status >= 500 {
			evt = log.Error()
		} else if status >= 400 {
			evt = log.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", SanitizePath(c.Path())).
			Int("status", status).
			Dur("duration_ms", duration).
			Str("ip_hash", hashIPForLog(c.IP(), ipSalt)).
			Bool("authenticated", !PrincipalFrom(c).IsAnonymous()).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
