// Package document holds the schemaless record type that the entity store
// returns and the view pipelines enrich, plus the value ordering they share.
package document

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Common field names shared by every collection.
const (
	IDField        = "_id"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// Document is a single record. Nested records are Documents, joined arrays
// are []Document, identifier values are bson.ObjectID and timestamps are
// time.Time.
type Document map[string]any

// Get resolves a dotted path ("owner.avatar") through nested documents.
func (d Document) Get(path string) (any, bool) {
	if d == nil {
		return nil, false
	}
	head, rest, nested := strings.Cut(path, ".")
	v, ok := d[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	sub, ok := AsDocument(v)
	if !ok {
		return nil, false
	}
	return sub.Get(rest)
}

// Set writes v at a dotted path, creating intermediate documents as needed.
func (d Document) Set(path string, v any) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		d[head] = v
		return
	}
	sub, ok := AsDocument(d[head])
	if !ok {
		sub = Document{}
		d[head] = sub
	}
	sub.Set(rest, v)
}

// ID returns the document identifier, or the zero ObjectID when absent.
func (d Document) ID() bson.ObjectID {
	return d.ObjectID(IDField)
}

// ObjectID returns the identifier stored at path. Hex strings are not
// accepted: identifiers are compared as identifiers, never as text.
func (d Document) ObjectID(path string) bson.ObjectID {
	v, _ := d.Get(path)
	id, _ := v.(bson.ObjectID)
	return id
}

// String returns the string at path or "".
func (d Document) String(path string) string {
	v, _ := d.Get(path)
	s, _ := v.(string)
	return s
}

// Bool returns the bool at path or false.
func (d Document) Bool(path string) bool {
	v, _ := d.Get(path)
	b, _ := v.(bool)
	return b
}

// Int64 returns the number at path truncated to an int64, or 0.
func (d Document) Int64(path string) int64 {
	v, _ := d.Get(path)
	f, ok := ToFloat(v)
	if !ok {
		return 0
	}
	return int64(f)
}

// Float64 returns the number at path or 0.
func (d Document) Float64(path string) float64 {
	v, _ := d.Get(path)
	f, _ := ToFloat(v)
	return f
}

// Time returns the timestamp at path or the zero time.
func (d Document) Time(path string) time.Time {
	v, _ := d.Get(path)
	t, _ := v.(time.Time)
	return t
}

// Strings returns the strings at path. A single string yields a
// one-element slice.
func (d Document) Strings(path string) []string {
	v, _ := d.Get(path)
	switch vs := v.(type) {
	case string:
		if vs == "" {
			return nil
		}
		return []string{vs}
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ObjectIDs returns the identifiers in the array at path, skipping anything
// that is not an identifier.
func (d Document) ObjectIDs(path string) []bson.ObjectID {
	v, _ := d.Get(path)
	var out []bson.ObjectID
	for _, e := range Values(v) {
		if id, ok := e.(bson.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out
}

// Docs returns the array of sub-documents at path. Elements that are not
// documents are skipped.
func (d Document) Docs(path string) []Document {
	v, _ := d.Get(path)
	return AsDocuments(v)
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies documents and arrays inside v.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return Document(t).Clone()
	case []Document:
		out := make([]Document, len(t))
		for i, e := range t {
			out[i] = e.Clone()
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []bson.ObjectID:
		return append([]bson.ObjectID(nil), t...)
	default:
		return v
	}
}

// AsDocument reports whether v is a (possibly untyped) document.
func AsDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case map[string]any:
		return Document(t), true
	}
	return nil, false
}

// AsDocuments converts an array value into documents.
func AsDocuments(v any) []Document {
	switch t := v.(type) {
	case []Document:
		return t
	case []any:
		out := make([]Document, 0, len(t))
		for _, e := range t {
			if sub, ok := AsDocument(e); ok {
				out = append(out, sub)
			}
		}
		return out
	}
	return nil
}

// Values flattens a scalar or array value into a slice. A nil value yields
// no elements.
func Values(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []bson.ObjectID:
		out := make([]any, len(t))
		for i, id := range t {
			out[i] = id
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []Document:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return []any{v}
	}
}

// Normalize converts decoded maps into Documents recursively so that values
// coming out of a driver behave like values built in memory.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Document, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case Document:
		for k, e := range t {
			t[k] = Normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = Normalize(e)
		}
		return t
	default:
		return v
	}
}
