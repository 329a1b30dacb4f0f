package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("gone"), http.StatusNotFound},
		{Forbidden("nope"), http.StatusForbidden},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Conflict("dup"), http.StatusConflict},
		{Upstream(errors.New("timeout"), "store"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err).Status())
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load video: %w", NotFound("Video not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Video not found", Message(err))
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: relation does not exist"), "query failed")
	assert.Equal(t, "Internal server error", Message(err))
	assert.Equal(t, "Internal server error", Message(errors.New("raw")))
}

func TestOnlyUpstreamIsRetryable(t *testing.T) {
	assert.True(t, Retryable(Upstream(errors.New("x"), "media")))
	assert.False(t, Retryable(Validation("x")))
	assert.False(t, Retryable(NotFound("x")))
	assert.False(t, Retryable(nil))
}
