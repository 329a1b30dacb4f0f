package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/store"
)

// danglingRef is a reference field whose target may have been deleted by
// a cascade that failed part way.
type danglingRef struct {
	collection store.Collection
	field      string
	target     store.Collection
	// array fields lose the dead element instead of the whole document
	array bool
}

// Comments go first so likes of removed comments are caught in the same
// pass.
var danglingRefs = []danglingRef{
	{store.Comments, "video", store.Videos, false},
	{store.Likes, "video", store.Videos, false},
	{store.Likes, "comment", store.Comments, false},
	{store.Likes, "tweet", store.Tweets, false},
	{store.Subscriptions, "channel", store.Users, false},
	{store.Subscriptions, "subscriber", store.Users, false},
	{store.Playlists, "videos", store.Videos, true},
	{store.Users, "watchHistory", store.Videos, true},
}

// OrphanWorker is a periodic background job that removes likes, comments
// and subscriptions whose target no longer exists, and pulls deleted videos
// out of playlists and watch histories.
type OrphanWorker struct {
	store    store.Store
	interval time.Duration
	stopCh   chan struct{}
}

// NewOrphanWorker creates a worker that ticks every interval.
func NewOrphanWorker(s store.Store, interval time.Duration) *OrphanWorker {
	return &OrphanWorker{
		store:    s,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one sweep immediately, then every interval, until ctx is
// cancelled or Stop is called.
func (w *OrphanWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("orphan-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("orphan-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("orphan-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *OrphanWorker) Stop() {
	close(w.stopCh)
}

func (w *OrphanWorker) tick(ctx context.Context) {
	start := time.Now()
	removed, err := w.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("orphan-worker: sweep failed")
		return
	}
	log.Info().Int64("removed", removed).Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("orphan-worker: tick complete")
}

// Sweep runs one pass over every dangling reference kind and returns how
// many documents it removed plus how many array references it pulled.
func (w *OrphanWorker) Sweep(ctx context.Context) (int64, error) {
	var total int64
	for _, ref := range danglingRefs {
		n, err := w.sweep(ctx, ref)
		if err != nil {
			return total, err
		}
		if n > 0 {
			metrics.OrphansRemoved.WithLabelValues(string(ref.collection)).Add(float64(n))
			log.Debug().Str("collection", string(ref.collection)).Str("field", ref.field).
				Int64("removed", n).Msg("orphan-worker: removed dangling documents")
		}
		total += n
	}
	return total, nil
}

func (w *OrphanWorker) sweep(ctx context.Context, ref danglingRef) (int64, error) {
	docs, err := w.store.Find(ctx, ref.collection, store.Where(store.Exists(ref.field)))
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	var keys []any
	for _, d := range docs {
		v, _ := d.Get(ref.field)
		vals := []any{v}
		if ref.array {
			vals = document.Values(v)
		}
		for _, e := range vals {
			k := document.Key(e)
			if !seen[k] {
				seen[k] = true
				keys = append(keys, e)
			}
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	targets, err := w.store.Find(ctx, ref.target, store.Where(store.In(document.IDField, keys)))
	if err != nil {
		return 0, err
	}
	alive := make(map[string]bool, len(targets))
	for _, t := range targets {
		alive[document.Key(t.ID())] = true
	}

	var missing []any
	for _, k := range keys {
		if !alive[document.Key(k)] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if ref.array {
		return w.pull(ctx, ref, docs, missing)
	}
	return w.store.Delete(ctx, ref.collection, store.Where(store.In(ref.field, missing)))
}

func (w *OrphanWorker) pull(ctx context.Context, ref danglingRef, holders []document.Document, missing []any) (int64, error) {
	var n int64
	for _, h := range holders {
		for _, id := range missing {
			if !store.Where(store.Eq(ref.field, id)).Matches(h) {
				continue
			}
			_, err := w.store.Update(ctx, ref.collection, store.ByID(h.ID()), store.Update{
				Pull: map[string]any{ref.field: id},
			})
			if err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
