package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/media"
	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/store"
)

type cascadeAction int

const (
	// cascadeDelete removes dependents and cascades from them in turn.
	cascadeDelete cascadeAction = iota
	// cascadePull removes the deleted identifier from an array field.
	cascadePull
)

type dependent struct {
	collection store.Collection
	field      string
	action     cascadeAction
}

// cascadePolicy lists, per collection, what has to go when a document of
// that collection is deleted.
var cascadePolicy = map[store.Collection][]dependent{
	store.Videos: {
		{store.Likes, "video", cascadeDelete},
		{store.Comments, "video", cascadeDelete},
		{store.Playlists, "videos", cascadePull},
		{store.Users, "watchHistory", cascadePull},
	},
	store.Comments: {
		{store.Likes, "comment", cascadeDelete},
	},
	store.Tweets: {
		{store.Likes, "tweet", cascadeDelete},
	},
	store.Users: {
		{store.Videos, "owner", cascadeDelete},
		{store.Tweets, "owner", cascadeDelete},
		{store.Comments, "owner", cascadeDelete},
		{store.Likes, "likedBy", cascadeDelete},
		{store.Subscriptions, "subscriber", cascadeDelete},
		{store.Subscriptions, "channel", cascadeDelete},
		{store.Playlists, "owner", cascadeDelete},
	},
}

// mediaFields names the fields holding media references per collection.
var mediaFields = map[store.Collection][]string{
	store.Videos: {"videoFile", "thumbnail"},
	store.Users:  {"avatar", "coverImage"},
	store.Tweets: {"images"},
}

// CascadeReport counts what a delete removed.
type CascadeReport struct {
	Deleted      map[store.Collection]int64 `json:"deleted"`
	Pulled       map[store.Collection]int64 `json:"pulled"`
	MediaDeleted int                        `json:"mediaDeleted"`
	MediaFailed  int                        `json:"mediaFailed"`
}

func newCascadeReport() *CascadeReport {
	return &CascadeReport{
		Deleted: make(map[store.Collection]int64),
		Pulled:  make(map[store.Collection]int64),
	}
}

// Deleter removes a document together with everything that depends on it.
// The steps are not transactional: the root goes first, then dependents,
// then media. A failure part way leaves dangling references that reads
// treat as absent and the orphan sweeper removes later.
type Deleter struct {
	store store.Store
	media media.Store
}

func NewDeleter(s store.Store, m media.Store) *Deleter {
	return &Deleter{store: s, media: m}
}

// Delete removes the document id of collection c and cascades.
// It returns store.ErrNotFound when the root does not exist.
func (d *Deleter) Delete(ctx context.Context, c store.Collection, id bson.ObjectID) (*CascadeReport, error) {
	root, err := d.store.FindOne(ctx, c, store.ByID(id))
	if err != nil {
		return nil, err
	}
	if _, err := d.store.Delete(ctx, c, store.ByID(id)); err != nil {
		return nil, err
	}

	report := newCascadeReport()
	report.Deleted[c] = 1
	metrics.CascadeDeletes.WithLabelValues(string(c)).Inc()

	refs := mediaRefs(c, []document.Document{root})
	more, err := d.cascade(ctx, c, []bson.ObjectID{id}, report)
	refs = append(refs, more...)
	if err != nil {
		log.Error().Err(err).Str("collection", string(c)).Str("id", id.Hex()).
			Msg("cascade: dependents left behind")
		return report, err
	}

	if d.media != nil && len(refs) > 0 {
		ok, err := media.DeleteAll(context.WithoutCancel(ctx), d.media, refs)
		for _, deleted := range ok {
			if deleted {
				report.MediaDeleted++
			}
		}
		if err != nil {
			report.MediaFailed = len(refs) - report.MediaDeleted
			log.Warn().Err(err).Int("failed", report.MediaFailed).Msg("cascade: media left behind")
		}
	}
	return report, nil
}

// cascade handles the dependents of the deleted ids of collection c and
// returns the media references of every document it deleted.
func (d *Deleter) cascade(ctx context.Context, c store.Collection, ids []bson.ObjectID, report *CascadeReport) ([]string, error) {
	var refs []string
	keys := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = id
	}

	for _, dep := range cascadePolicy[c] {
		f := store.Where(store.In(dep.field, keys))

		if dep.action == cascadePull {
			n, err := d.pull(ctx, dep, f, ids)
			report.Pulled[dep.collection] += n
			if err != nil {
				return refs, err
			}
			continue
		}

		// documents whose own dependents or media must go are read first
		var victims []document.Document
		if _, ok := cascadePolicy[dep.collection]; ok || len(mediaFields[dep.collection]) > 0 {
			var err error
			victims, err = d.store.Find(ctx, dep.collection, f)
			if err != nil {
				return refs, fmt.Errorf("cascade %s.%s: %w", dep.collection, dep.field, err)
			}
			if len(victims) == 0 {
				continue
			}
		}

		n, err := d.store.Delete(ctx, dep.collection, f)
		if err != nil {
			return refs, fmt.Errorf("cascade %s.%s: %w", dep.collection, dep.field, err)
		}
		report.Deleted[dep.collection] += n
		metrics.CascadeDeletes.WithLabelValues(string(dep.collection)).Add(float64(n))

		if len(victims) == 0 {
			continue
		}
		refs = append(refs, mediaRefs(dep.collection, victims)...)
		victimIDs := make([]bson.ObjectID, len(victims))
		for i, v := range victims {
			victimIDs[i] = v.ID()
		}
		more, err := d.cascade(ctx, dep.collection, victimIDs, report)
		refs = append(refs, more...)
		if err != nil {
			return refs, err
		}
	}
	return refs, nil
}

func (d *Deleter) pull(ctx context.Context, dep dependent, f store.Filter, ids []bson.ObjectID) (int64, error) {
	holders, err := d.store.Find(ctx, dep.collection, f)
	if err != nil {
		return 0, fmt.Errorf("cascade pull %s.%s: %w", dep.collection, dep.field, err)
	}
	var n int64
	for _, h := range holders {
		for _, id := range ids {
			if !store.Where(store.Eq(dep.field, id)).Matches(h) {
				continue
			}
			_, err := d.store.Update(ctx, dep.collection, store.ByID(h.ID()), store.Update{
				Pull: map[string]any{dep.field: id},
			})
			if err != nil {
				return n, fmt.Errorf("cascade pull %s.%s: %w", dep.collection, dep.field, err)
			}
		}
		n++
	}
	return n, nil
}

func mediaRefs(c store.Collection, docs []document.Document) []string {
	var refs []string
	for _, d := range docs {
		for _, f := range mediaFields[c] {
			refs = append(refs, d.Strings(f)...)
		}
	}
	return refs
}
