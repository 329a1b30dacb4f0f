package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/resilience"
)

// flakyStore fails the first failures calls to Find and Insert.
type flakyStore struct {
	*Memory
	failures int
	calls    int
}

func (s *flakyStore) Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("connection reset")
	}
	return s.Memory.Find(ctx, c, f)
}

func (s *flakyStore) Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("connection reset")
	}
	return s.Memory.Insert(ctx, c, d)
}

var fastPolicy = resilience.Policy{Attempts: 3, Timeout: time.Second, Backoff: time.Millisecond, MaxBackoff: time.Millisecond}

func TestResilientRetriesReads(t *testing.T) {
	s := &flakyStore{Memory: NewMemory(), failures: 2}
	r := NewResilient(s, fastPolicy)

	_, err := r.Find(context.Background(), Videos, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.calls)
}

func TestResilientSurfacesUpstreamAfterExhaustion(t *testing.T) {
	s := &flakyStore{Memory: NewMemory(), failures: 10}
	r := NewResilient(s, fastPolicy)

	_, err := r.Find(context.Background(), Videos, nil)
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
	assert.Equal(t, 3, s.calls)
}

func TestResilientDoesNotRetryWrites(t *testing.T) {
	s := &flakyStore{Memory: NewMemory(), failures: 1}
	r := NewResilient(s, fastPolicy)

	_, err := r.Insert(context.Background(), Videos, document.Document{"title": "x"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Equal(t, 1, s.calls)
}

func TestResilientPassesSentinelsThrough(t *testing.T) {
	r := NewResilient(NewMemory(), fastPolicy)
	ctx := context.Background()

	_, err := r.FindOne(ctx, Videos, ByID(bson.NewObjectID()))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, apperr.Retryable(err))

	_, err = r.Insert(ctx, Users, document.Document{"username": "a"})
	require.NoError(t, err)
	_, err = r.Insert(ctx, Users, document.Document{"username": "a"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
