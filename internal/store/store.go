// Package store is the entity store: typed collections of documents behind a
// small filter and update language, with in-memory, PostgreSQL and MongoDB
// implementations.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Collection names a document collection.
type Collection string

const (
	Users         Collection = "users"
	Videos        Collection = "videos"
	Comments      Collection = "comments"
	Tweets        Collection = "tweets"
	Likes         Collection = "likes"
	Subscriptions Collection = "subscriptions"
	Playlists     Collection = "playlists"
)

// Collections lists every collection in a stable order.
var Collections = []Collection{Users, Videos, Comments, Tweets, Likes, Subscriptions, Playlists}

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is the document collection API used by repositories and the
// pipeline engine. Find returns documents in insertion order.
type Store interface {
	Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error)
	Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error)
	FindOne(ctx context.Context, c Collection, f Filter) (document.Document, error)
	// Update applies u to the first matching document and returns it after
	// the update.
	Update(ctx context.Context, c Collection, f Filter, u Update) (document.Document, error)
	// Delete removes every matching document and returns how many went.
	Delete(ctx context.Context, c Collection, f Filter) (int64, error)
	Ping(ctx context.Context) error
}

// Op is a filter condition operator.
type Op int

const (
	OpEq Op = iota
	OpIn
	OpExists
)

// Cond is one condition of a Filter.
type Cond struct {
	Field  string
	Op     Op
	Value  any
	Values []any
}

// Filter is a conjunction of conditions. The empty filter matches everything.
type Filter []Cond

// Eq matches documents whose field equals v. When the stored field is an
// array, any equal element matches.
func Eq(field string, v any) Cond {
	return Cond{Field: field, Op: OpEq, Value: v}
}

// In matches documents whose field equals any of vs.
func In(field string, vs []any) Cond {
	return Cond{Field: field, Op: OpIn, Values: vs}
}

// Exists matches documents where field is present and not null.
func Exists(field string) Cond {
	return Cond{Field: field, Op: OpExists}
}

// Where builds a filter from conditions.
func Where(conds ...Cond) Filter {
	return Filter(conds)
}

// ByID matches the document with the given identifier.
func ByID(id bson.ObjectID) Filter {
	return Filter{Eq(document.IDField, id)}
}

// And returns a new filter holding f's conditions plus more.
func (f Filter) And(more ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(more))
	out = append(out, f...)
	return append(out, more...)
}

// Matches evaluates the filter against a document.
func (f Filter) Matches(d document.Document) bool {
	for _, c := range f {
		if !c.matches(d) {
			return false
		}
	}
	return true
}

func (c Cond) matches(d document.Document) bool {
	v, ok := d.Get(c.Field)
	switch c.Op {
	case OpExists:
		return ok && v != nil
	case OpEq:
		return anyEqual(v, c.Value)
	case OpIn:
		for _, want := range c.Values {
			if anyEqual(v, want) {
				return true
			}
		}
		return false
	}
	return false
}

func anyEqual(stored, want any) bool {
	if document.Equal(stored, want) {
		return true
	}
	switch stored.(type) {
	case []any, []bson.ObjectID, []string:
		for _, e := range document.Values(stored) {
			if document.Equal(e, want) {
				return true
			}
		}
	}
	return false
}

// Update describes a partial update. Fields may be dotted paths.
type Update struct {
	Set      map[string]any
	Unset    []string
	Inc      map[string]int64
	AddToSet map[string]any
	Pull     map[string]any
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return len(u.Set) == 0 && len(u.Unset) == 0 && len(u.Inc) == 0 &&
		len(u.AddToSet) == 0 && len(u.Pull) == 0
}

// Apply mutates d in place and bumps updatedAt to now.
func (u Update) Apply(d document.Document, now time.Time) {
	for k, v := range u.Set {
		d.Set(k, v)
	}
	for _, k := range u.Unset {
		unset(d, k)
	}
	for k, delta := range u.Inc {
		d.Set(k, d.Int64(k)+delta)
	}
	for k, v := range u.AddToSet {
		cur, _ := d.Get(k)
		vals := document.Values(cur)
		present := false
		for _, e := range vals {
			if document.Equal(e, v) {
				present = true
				break
			}
		}
		if !present {
			vals = append(append([]any(nil), vals...), v)
		}
		d.Set(k, vals)
	}
	for k, v := range u.Pull {
		cur, ok := d.Get(k)
		if !ok {
			continue
		}
		kept := make([]any, 0)
		for _, e := range document.Values(cur) {
			if !document.Equal(e, v) {
				kept = append(kept, e)
			}
		}
		d.Set(k, kept)
	}
	d[document.UpdatedAtField] = now
}

func unset(d document.Document, path string) {
	parent := d
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		v, _ := d.Get(path[:i])
		sub, ok := document.AsDocument(v)
		if !ok {
			return
		}
		parent, path = sub, path[i+1:]
	}
	delete(parent, path)
}

// UniqueKey is a set of fields whose combined values must be unique within a
// collection. Documents missing any of the fields are not constrained.
type UniqueKey struct {
	Name   string
	Fields []string
}

// UniqueKeys is the uniqueness policy for every collection.
var UniqueKeys = map[Collection][]UniqueKey{
	Users: {
		{Name: "users_username_uq", Fields: []string{"username"}},
	},
	Likes: {
		{Name: "likes_video_uq", Fields: []string{"likedBy", "video"}},
		{Name: "likes_comment_uq", Fields: []string{"likedBy", "comment"}},
		{Name: "likes_tweet_uq", Fields: []string{"likedBy", "tweet"}},
	},
	Subscriptions: {
		{Name: "subscriptions_pair_uq", Fields: []string{"subscriber", "channel"}},
	},
}

// uniqueValue returns the composite key of d for k, or false when d is not
// constrained by k.
func (k UniqueKey) uniqueValue(d document.Document) (string, bool) {
	parts := make([]string, len(k.Fields))
	for i, f := range k.Fields {
		v, ok := d.Get(f)
		if !ok || v == nil {
			return "", false
		}
		parts[i] = document.Key(v)
	}
	return strings.Join(parts, "|"), true
}

// prepareInsert assigns an identifier and timestamps when the caller left
// them out.
func prepareInsert(d document.Document, now time.Time) document.Document {
	out := d.Clone()
	if out == nil {
		out = document.Document{}
	}
	if out.ID().IsZero() {
		out[document.IDField] = bson.NewObjectID()
	}
	if _, ok := out[document.CreatedAtField].(time.Time); !ok {
		out[document.CreatedAtField] = now
	}
	if _, ok := out[document.UpdatedAtField].(time.Time); !ok {
		out[document.UpdatedAtField] = out[document.CreatedAtField]
	}
	return out
}
