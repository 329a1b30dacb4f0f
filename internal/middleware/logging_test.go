package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/pkg/hash"
)

func TestHashIPForLogIsSalted(t *testing.T) {
	got := hashIPForLog("192.168.1.1", "salt-a")
	assert.Len(t, got, ipLogHashLen)
	assert.Equal(t, hash.HashIP("192.168.1.1", "salt-a")[:ipLogHashLen], got)
	assert.NotEqual(t, got, hashIPForLog("192.168.1.1", "salt-b"))
	assert.NotEqual(t, got, hashIPForLog("10.0.0.1", "salt-a"))
}

func TestRequestLoggerWritesSaltedIPHash(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	var ip string
	app := fiber.New()
	app.Use(NewRequestLogger("pepper"))
	app.Get("/api/v1/videos/:videoId", func(c fiber.Ctx) error {
		ip = c.IP()
		return apperr.NotFound("Video not found")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/videos/65f1c0a2b3d4e5f607182930", nil))
	require.NoError(t, err)
	resp.Body.Close()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "/api/v1/videos/:id", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, hashIPForLog(ip, "pepper"), entry["ip_hash"])
	assert.NotContains(t, buf.String(), `"`+ip+`"`)
}
