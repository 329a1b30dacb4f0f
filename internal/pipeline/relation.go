package pipeline

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/store"
)

// MaxDepth is the deepest a relation may be nested. A top-level relation
// is at depth 1.
const MaxDepth = 2

// Relation describes a left-outer join from a source document onto
// documents of another collection.
type Relation struct {
	From         store.Collection
	LocalField   string // scalar key or array of keys on the source
	ForeignField string
	As           string

	// Single attaches the first joined document (or nil) instead of an array.
	Single bool
	// Required drops source documents that joined nothing.
	Required bool
	// Match narrows the joined documents.
	Match store.Filter

	// Nested relations, derivations and fields apply to the joined
	// documents before they are attached.
	Nested []Relation
	Derive []Derivation
	Fields []string
}

// Lookup is the common case of joining a foreign key onto a target's
// identifier.
func Lookup(from store.Collection, localField, as string) Relation {
	return Relation{From: from, LocalField: localField, ForeignField: document.IDField, As: as}
}

// Reverse joins documents of from whose foreignField points back at the
// source's identifier.
func Reverse(from store.Collection, foreignField, as string) Relation {
	return Relation{From: from, LocalField: document.IDField, ForeignField: foreignField, As: as}
}

func validateRelations(rels []Relation, depth int) error {
	for _, r := range rels {
		if depth > MaxDepth {
			return apperr.Validation("relation %q is nested deeper than %d levels", r.As, MaxDepth)
		}
		if r.From == "" || r.LocalField == "" || r.ForeignField == "" || r.As == "" {
			return apperr.Validation("relation %q is incomplete", r.As)
		}
		if err := validateRelations(r.Nested, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// join resolves every relation against docs and attaches the results in
// declaration order. Relations at one level are independent, so their
// lookups run concurrently.
func (e *Engine) join(ctx context.Context, docs []document.Document, rels []Relation, requester bson.ObjectID) ([]document.Document, error) {
	if len(rels) == 0 || len(docs) == 0 {
		return docs, nil
	}

	results := make([][][]document.Document, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range rels {
		g.Go(func() error {
			joined, err := e.lookup(gctx, docs, r, requester)
			if err != nil {
				return err
			}
			results[i] = joined
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// attach in order; Required drops rows, so keep the per-relation
	// results aligned with the surviving documents.
	keep := make([]bool, len(docs))
	for i := range keep {
		keep[i] = true
	}
	for ri, r := range rels {
		for di, d := range docs {
			joined := results[ri][di]
			if r.Required && len(joined) == 0 {
				keep[di] = false
			}
			setJoined(d, r, joined)
		}
	}
	out := docs[:0]
	for i, d := range docs {
		if keep[i] {
			out = append(out, d)
		}
	}
	return out, nil
}

// lookup returns the joined documents for each source document, in source
// order. One store query is made per call.
func (e *Engine) lookup(ctx context.Context, docs []document.Document, r Relation, requester bson.ObjectID) ([][]document.Document, error) {
	seen := make(map[string]bool)
	var keys []any
	for _, d := range docs {
		v, _ := d.Get(r.LocalField)
		for _, k := range document.Values(v) {
			kk := document.Key(k)
			if !seen[kk] {
				seen[kk] = true
				keys = append(keys, k)
			}
		}
	}

	out := make([][]document.Document, len(docs))
	if len(keys) == 0 {
		return out, nil
	}

	targets, err := e.store.Find(ctx, r.From, store.Where(store.In(r.ForeignField, keys)).And(r.Match...))
	if err != nil {
		return nil, err
	}
	targets, err = e.join(ctx, targets, r.Nested, requester)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		Attach(t, requester, r.Derive)
	}

	// group targets by join value, keeping target order within a group
	groups := make(map[string][]document.Document)
	for _, t := range targets {
		v, _ := t.Get(r.ForeignField)
		for _, k := range document.Values(v) {
			kk := document.Key(k)
			groups[kk] = append(groups[kk], t)
		}
	}

	for i, d := range docs {
		v, _ := d.Get(r.LocalField)
		local := document.Values(v)
		var joined []document.Document
		if len(local) == 1 {
			joined = groups[document.Key(local[0])]
		} else {
			added := make(map[bson.ObjectID]bool)
			for _, k := range local {
				for _, t := range groups[document.Key(k)] {
					if id := t.ID(); !id.IsZero() {
						if added[id] {
							continue
						}
						added[id] = true
					}
					joined = append(joined, t)
				}
			}
		}
		out[i] = shape(joined, r.Fields)
	}
	return out, nil
}

// shape copies the joined documents for one source so sources never share
// maps, projecting them when fields are given.
func shape(joined []document.Document, fields []string) []document.Document {
	out := make([]document.Document, len(joined))
	for i, j := range joined {
		out[i] = Project(j, fields)
	}
	return out
}

func setJoined(d document.Document, r Relation, joined []document.Document) {
	if !r.Single {
		if joined == nil {
			joined = []document.Document{}
		}
		d.Set(r.As, joined)
		return
	}
	if len(joined) == 0 {
		d.Set(r.As, nil)
		return
	}
	d.Set(r.As, joined[0])
}
