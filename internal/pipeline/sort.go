package pipeline

import (
	"slices"
	"strings"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
)

// Sort orders a result set. Ties are always broken by identifier ascending.
type Sort struct {
	Key  string
	Desc bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Key: document.CreatedAtField, Desc: true}

// SortableFields are the keys callers may sort listings by.
var SortableFields = []string{"views", document.CreatedAtField, "duration"}

// ParseSort validates caller-supplied sort parameters. Empty values fall
// back to DefaultSort; unknown keys or directions are rejected.
func ParseSort(sortBy, sortType string) (Sort, error) {
	s := DefaultSort
	if sortBy = strings.TrimSpace(sortBy); sortBy != "" {
		if !slices.Contains(SortableFields, sortBy) {
			return Sort{}, apperr.Validation("sortBy must be one of %s", strings.Join(SortableFields, ", "))
		}
		s.Key = sortBy
	}
	switch strings.ToLower(strings.TrimSpace(sortType)) {
	case "", "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	default:
		return Sort{}, apperr.Validation("sortType must be asc or desc")
	}
	return s, nil
}

// Apply sorts docs in place. The order is total: documents equal on the key
// are ordered by identifier ascending.
func (s Sort) Apply(docs []document.Document) {
	slices.SortStableFunc(docs, func(a, b document.Document) int {
		av, _ := a.Get(s.Key)
		bv, _ := b.Get(s.Key)
		c := document.Compare(av, bv)
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return document.Compare(a.ID(), b.ID())
	})
}
