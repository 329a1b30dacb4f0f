package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{" , ", []string{"*"}},
		{"https://app.vidnest.dev/, http://localhost:5173", []string{"https://app.vidnest.dev", "http://localhost:5173"}},
		{"https://a.dev,*", []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, corsOrigins(tt.raw))
		})
	}
}

func preflight(t *testing.T, raw, origin string) *http.Response {
	t.Helper()
	app := fiber.New()
	app.Use(NewCORS(raw))
	app.Patch("/api/v1/users/avatar", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/avatar", nil)
	req.Header.Set(fiber.HeaderOrigin, origin)
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPatch)
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCORSAllowsCredentialsForListedOrigins(t *testing.T) {
	resp := preflight(t, "https://app.vidnest.dev", "https://app.vidnest.dev")
	assert.Equal(t, "https://app.vidnest.dev", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), fiber.MethodPatch)

	resp = preflight(t, "https://app.vidnest.dev", "https://evil.example")
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCORSWildcardNeverAllowsCredentials(t *testing.T) {
	resp := preflight(t, "*", "https://anywhere.example")
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Empty(t, resp.Header.Get(fiber.HeaderAccessControlAllowCredentials))
}
