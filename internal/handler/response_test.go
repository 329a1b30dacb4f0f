package handler

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/model"
)

func TestErrorHandlerMapsKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation("title is required"), http.StatusBadRequest, "title is required"},
		{"not found", apperr.NotFound("Video not found"), http.StatusNotFound, "Video not found"},
		{"forbidden", apperr.Forbidden("You are not allowed to modify this video"), http.StatusForbidden, "You are not allowed to modify this video"},
		{"conflict", apperr.Conflict("User with this username already exists"), http.StatusConflict, "User with this username already exists"},
		{"upstream", apperr.Upstream(errors.New("dial tcp: refused"), "Store unavailable"), http.StatusServiceUnavailable, "Store unavailable"},
		{"internal hides cause", apperr.Internal(errors.New("pq: secret detail"), "boom"), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError, "Internal server error"},
		{"fiber error", fiber.NewError(fiber.StatusRequestEntityTooLarge, "Request Entity Too Large"), http.StatusRequestEntityTooLarge, "Request Entity Too Large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var env model.Envelope
			require.NoError(t, json.Unmarshal(body, &env))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus, env.StatusCode)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
		})
	}
}

func TestObjectIDParamAndPageRequest(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/items/:itemId", func(c fiber.Ctx) error {
		id, err := objectIDParam(c, "itemId")
		if err != nil {
			return err
		}
		req, err := pageRequest(c)
		if err != nil {
			return err
		}
		return success(c, fiber.Map{"id": id.Hex(), "page": req.Page, "limit": req.Limit}, "ok")
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/items/64b7f0c2a1d4e5f6a7b8c9d0", http.StatusOK},
		{"/items/64b7f0c2a1d4e5f6a7b8c9d0?page=2&limit=5", http.StatusOK},
		{"/items/xyz", http.StatusBadRequest},
		{"/items/64b7f0c2a1d4e5f6a7b8c9d0?page=0", http.StatusBadRequest},
		{"/items/64b7f0c2a1d4e5f6a7b8c9d0?limit=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
