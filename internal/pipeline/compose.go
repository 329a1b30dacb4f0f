// Package pipeline composes multi-collection views over the entity store:
// text search, scoping match, batched joins, derived fields, total sort,
// projection and pagination, always applied in that order.
package pipeline

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
	"github.com/vidnest/vidnest-go/internal/metrics"
	"github.com/vidnest/vidnest-go/internal/store"
)

// Pipeline describes a view over one collection. Builder methods may be
// called in any order; execution order is fixed by the Engine.
type Pipeline struct {
	name         string
	from         store.Collection
	searchTerms  []string
	searchFields []string
	match        store.Filter
	relations    []Relation
	derive       []Derivation
	sort         Sort
	fields       []string
}

// New starts a pipeline over a collection. The name labels metrics.
func New(name string, from store.Collection) *Pipeline {
	return &Pipeline{name: name, from: from, sort: DefaultSort}
}

// Search keeps documents where any whitespace-separated term of query
// occurs, case-insensitively, in any of fields. An empty query is a no-op.
func (p *Pipeline) Search(query string, fields ...string) *Pipeline {
	p.searchTerms = strings.Fields(strings.ToLower(query))
	p.searchFields = fields
	return p
}

// Match narrows the source collection.
func (p *Pipeline) Match(conds ...store.Cond) *Pipeline {
	p.match = p.match.And(conds...)
	return p
}

// Join adds relations resolved against the matched documents.
func (p *Pipeline) Join(rels ...Relation) *Pipeline {
	p.relations = append(p.relations, rels...)
	return p
}

// Derive adds fields computed from joined data.
func (p *Pipeline) Derive(ds ...Derivation) *Pipeline {
	p.derive = append(p.derive, ds...)
	return p
}

// SortBy overrides the default newest-first order.
func (p *Pipeline) SortBy(s Sort) *Pipeline {
	p.sort = s
	return p
}

// Project limits the output to the given dotted paths.
func (p *Pipeline) Project(fields ...string) *Pipeline {
	p.fields = append(p.fields, fields...)
	return p
}

// Engine executes pipelines against a store.
type Engine struct {
	store store.Store
}

func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Run evaluates the whole pipeline for requester (zero for anonymous).
func (e *Engine) Run(ctx context.Context, p *Pipeline, requester bson.ObjectID) ([]document.Document, error) {
	defer observe(p.name, time.Now())

	docs, err := e.source(ctx, p)
	if err != nil {
		return nil, err
	}
	docs, err = e.enrich(ctx, p, docs, requester)
	if err != nil {
		return nil, err
	}
	p.sort.Apply(docs)
	return project(docs, p.fields), nil
}

// One runs the pipeline and returns its first document, or
// store.ErrNotFound when the result is empty.
func (e *Engine) One(ctx context.Context, p *Pipeline, requester bson.ObjectID) (document.Document, error) {
	docs, err := e.Run(ctx, p, requester)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// Paginate evaluates the pipeline and returns one page of it. The total
// counts documents that survive search, match and required joins; joins
// never multiply rows.
func (e *Engine) Paginate(ctx context.Context, p *Pipeline, requester bson.ObjectID, req PageRequest) (Page, error) {
	defer observe(p.name, time.Now())

	docs, err := e.source(ctx, p)
	if err != nil {
		return Page{}, err
	}

	if p.windowFirst() {
		// Only the page needs enriching: no join can drop a row and the
		// sort key is stored on the source.
		p.sort.Apply(docs)
		total := len(docs)
		items, err := e.enrich(ctx, p, window(docs, req), requester)
		if err != nil {
			return Page{}, err
		}
		return newPage(project(items, p.fields), total, req), nil
	}

	docs, err = e.enrich(ctx, p, docs, requester)
	if err != nil {
		return Page{}, err
	}
	p.sort.Apply(docs)
	return newPage(project(window(docs, req), p.fields), len(docs), req), nil
}

// source runs the search and scoping match stages.
func (e *Engine) source(ctx context.Context, p *Pipeline) ([]document.Document, error) {
	if err := validateRelations(p.relations, 1); err != nil {
		return nil, err
	}
	docs, err := e.store.Find(ctx, p.from, p.match)
	if err != nil {
		return nil, err
	}
	if len(p.searchTerms) == 0 {
		return docs, nil
	}
	out := docs[:0]
	for _, d := range docs {
		if p.searchMatches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// enrich runs the join and derive stages.
func (e *Engine) enrich(ctx context.Context, p *Pipeline, docs []document.Document, requester bson.ObjectID) ([]document.Document, error) {
	docs, err := e.join(ctx, docs, p.relations, requester)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		Attach(d, requester, p.derive)
	}
	return docs, nil
}

func (p *Pipeline) searchMatches(d document.Document) bool {
	for _, f := range p.searchFields {
		text := strings.ToLower(d.String(f))
		if text == "" {
			continue
		}
		for _, term := range p.searchTerms {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}

// windowFirst reports whether sorting and windowing before the joins gives
// the same page as evaluating everything first.
func (p *Pipeline) windowFirst() bool {
	root, _, _ := strings.Cut(p.sort.Key, ".")
	for _, r := range p.relations {
		if r.Required {
			return false
		}
		if head, _, _ := strings.Cut(r.As, "."); head == root {
			return false
		}
	}
	return !slices.ContainsFunc(p.derive, func(d Derivation) bool {
		head, _, _ := strings.Cut(d.Name, ".")
		return head == root
	})
}

func project(docs []document.Document, fields []string) []document.Document {
	out := make([]document.Document, len(docs))
	for i, d := range docs {
		out[i] = Project(d, fields)
	}
	return out
}

func observe(name string, start time.Time) {
	metrics.PipelineDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
