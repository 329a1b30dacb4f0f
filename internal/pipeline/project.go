package pipeline

import (
	"strings"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Credential fields are removed from every view at every depth.
var credentialFields = []string{"password", "refreshToken"}

type fieldTree map[string]fieldTree

func buildTree(fields []string) fieldTree {
	root := fieldTree{}
	for _, f := range fields {
		node := root
		parts := strings.Split(f, ".")
		for i, p := range parts {
			child, ok := node[p]
			if ok && child == nil {
				// a shorter path already keeps the whole value
				break
			}
			if i == len(parts)-1 {
				node[p] = nil
				break
			}
			if !ok {
				child = fieldTree{}
				node[p] = child
			}
			node = child
		}
	}
	return root
}

// Project keeps only the listed dotted paths of d. Arrays of documents are
// projected element-wise. An empty list keeps everything. Credentials are
// always dropped. The result shares nothing with d.
func Project(d document.Document, fields []string) document.Document {
	if d == nil {
		return nil
	}
	if len(fields) == 0 {
		return stripCredentials(d.Clone())
	}
	return projectTree(d, buildTree(fields))
}

func projectTree(d document.Document, tree fieldTree) document.Document {
	out := make(document.Document, len(tree))
	for key, sub := range tree {
		if isCredential(key) {
			continue
		}
		v, ok := d[key]
		if !ok {
			continue
		}
		if sub == nil {
			out[key] = stripValue(document.CloneValue(v))
			continue
		}
		if nested, ok := document.AsDocument(v); ok {
			out[key] = projectTree(nested, sub)
			continue
		}
		if docs := document.AsDocuments(v); docs != nil {
			arr := make([]document.Document, len(docs))
			for i, e := range docs {
				arr[i] = projectTree(e, sub)
			}
			out[key] = arr
			continue
		}
		if v == nil {
			out[key] = nil
		}
	}
	return out
}

func isCredential(key string) bool {
	for _, c := range credentialFields {
		if key == c {
			return true
		}
	}
	return false
}

func stripCredentials(d document.Document) document.Document {
	for _, c := range credentialFields {
		delete(d, c)
	}
	for k, v := range d {
		d[k] = stripValue(v)
	}
	return d
}

func stripValue(v any) any {
	if sub, ok := document.AsDocument(v); ok {
		return stripCredentials(sub)
	}
	switch t := v.(type) {
	case []document.Document:
		for _, e := range t {
			stripCredentials(e)
		}
	case []any:
		for i, e := range t {
			t[i] = stripValue(e)
		}
	}
	return v
}
