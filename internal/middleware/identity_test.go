package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/model"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

type resolverFunc func(ctx context.Context, id bson.ObjectID) (model.Principal, error)

func (f resolverFunc) Principal(ctx context.Context, id bson.ObjectID) (model.Principal, error) {
	return f(ctx, id)
}

func identityApp(cfg IdentityConfig) *fiber.App {
	app := fiber.New()
	app.Use(NewIdentity(cfg))
	app.Get("/who", func(c fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p.IsAnonymous() {
			return c.SendString("anonymous")
		}
		return c.SendString(p.ID.Hex())
	})
	app.Post("/private", RequireAuth(), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIdentityResolvesPrincipal(t *testing.T) {
	id := bson.NewObjectID()
	app := identityApp(IdentityConfig{Secret: testSecret})

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{"no token is anonymous", "", http.StatusOK, "anonymous"},
		{"sub claim", signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": id.Hex()}), http.StatusOK, id.Hex()},
		{"_id claim", signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"_id": id.Hex()}), http.StatusOK, id.Hex()},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": id.Hex()}), http.StatusUnauthorized, ""},
		{"expired", signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": id.Hex(), "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized, ""},
		{"other algorithm", signToken(t, jwt.SigningMethodHS384, testSecret, jwt.MapClaims{"sub": id.Hex()}), http.StatusUnauthorized, ""},
		{"subject not an id", signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "alice"}), http.StatusUnauthorized, ""},
		{"garbage", "not.a.token", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodGet, "/who", tt.token)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
				return
			}
			var env model.Envelope
			require.NoError(t, json.Unmarshal([]byte(body), &env))
			assert.False(t, env.Success)
			assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
		})
	}
}

func TestIdentityResolverRejectsUnknownUser(t *testing.T) {
	app := identityApp(IdentityConfig{
		Secret: testSecret,
		Resolver: resolverFunc(func(context.Context, bson.ObjectID) (model.Principal, error) {
			return model.Anonymous, apperr.Unauthenticated("Invalid access token")
		}),
	})
	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": bson.NewObjectID().Hex()})

	status, body := call(t, app, http.MethodGet, "/who", token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid access token")
}

func TestRequireAuth(t *testing.T) {
	app := identityApp(IdentityConfig{Secret: testSecret})

	status, body := call(t, app, http.MethodPost, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Authentication required")

	token := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": bson.NewObjectID().Hex()})
	status, _ = call(t, app, http.MethodPost, "/private", token)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestKeyByPrincipalFallsBackToIP(t *testing.T) {
	id := bson.NewObjectID()
	app := fiber.New()
	app.Use(NewIdentity(IdentityConfig{Secret: testSecret}))
	app.Get("/key", func(c fiber.Ctx) error { return c.SendString(KeyByPrincipal(c)) })

	_, body := call(t, app, http.MethodGet, "/key", "")
	assert.True(t, strings.HasPrefix(body, "ip:"), body)

	_, body = call(t, app, http.MethodGet, "/key", signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": id.Hex()}))
	assert.Equal(t, "user:"+id.Hex(), body)
}

func TestRateLimiterHandlerRejectsWithEnvelope(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute, KeyFn: KeyByIP}).Handler())
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	status, _ := call(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestSanitizePath(t *testing.T) {
	id := bson.NewObjectID().Hex()
	tests := []struct {
		in, want string
	}{
		{"/api/v1/videos/" + id, "/api/v1/videos/:id"},
		{"/api/v1/playlist/add/" + id + "/" + id, "/api/v1/playlist/add/:id/:id"},
		{"/api/v1/users/c/alice", "/api/v1/users/c/:username"},
		{"/api/v1/videos", "/api/v1/videos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizePath(tt.in))
	}
}
