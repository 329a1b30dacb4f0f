// Package media stores uploaded blobs (video files, thumbnails, avatars,
// cover images, tweet images) and hands back retrieval references.
package media

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Object is one blob to upload.
type Object struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store is the media object store.
type Store interface {
	// Put uploads obj and returns its retrieval reference.
	Put(ctx context.Context, obj Object) (string, error)
	// Delete removes the object behind ref. It reports false when ref does
	// not belong to this store.
	Delete(ctx context.Context, ref string) (bool, error)
}

// PutAll uploads objs concurrently and returns their references in input
// order. If any upload fails, the uploads that did succeed are deleted
// before the error is returned.
func PutAll(ctx context.Context, s Store, objs []Object) ([]string, error) {
	refs := make([]string, len(objs))
	g, gctx := errgroup.WithContext(ctx)
	for i, obj := range objs {
		g.Go(func() error {
			ref, err := s.Put(gctx, obj)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		uploaded := make([]string, 0, len(refs))
		for _, r := range refs {
			if r != "" {
				uploaded = append(uploaded, r)
			}
		}
		// the request context may already be done; cleanup must still run
		if _, derr := DeleteAll(context.WithoutCancel(ctx), s, uploaded); derr != nil {
			log.Warn().Err(derr).Int("uploaded", len(uploaded)).Msg("media: upload cleanup left objects behind")
		}
		return nil, err
	}
	return refs, nil
}

// DeleteAll removes every ref concurrently. Failures are logged and
// joined; one failed delete does not stop the others. The result reports
// per-ref success in input order.
func DeleteAll(ctx context.Context, s Store, refs []string) ([]bool, error) {
	ok := make([]bool, len(refs))
	errs := make([]error, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		if ref == "" {
			continue
		}
		g.Go(func() error {
			deleted, err := s.Delete(ctx, ref)
			if err != nil {
				log.Warn().Err(err).Str("ref", ref).Msg("media delete failed")
				errs[i] = err
				return nil
			}
			ok[i] = deleted
			return nil
		})
	}
	_ = g.Wait()
	return ok, errors.Join(errs...)
}
