package pipeline

import (
	"strconv"
	"strings"

	"github.com/vidnest/vidnest-go/internal/apperr"
	"github.com/vidnest/vidnest-go/internal/document"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a validated page window.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset is the number of items before the window.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// Page is one window of a result set plus totals for the whole set.
type Page struct {
	Items       []document.Document `json:"items"`
	Page        int                 `json:"page"`
	Limit       int                 `json:"limit"`
	TotalItems  int                 `json:"totalItems"`
	TotalPages  int                 `json:"totalPages"`
	HasNextPage bool                `json:"hasNextPage"`
	HasPrevPage bool                `json:"hasPrevPage"`
}

// ParsePageRequest parses raw page and limit parameters. Empty values take
// the defaults; anything else must be a positive integer.
func ParsePageRequest(page, limit string) (PageRequest, error) {
	p, err := parsePositive("page", page, DefaultPage)
	if err != nil {
		return PageRequest{}, err
	}
	l, err := parsePositive("limit", limit, DefaultLimit)
	if err != nil {
		return PageRequest{}, err
	}
	if l > MaxLimit {
		return PageRequest{}, apperr.Validation("limit must not exceed %d", MaxLimit)
	}
	return PageRequest{Page: p, Limit: l}, nil
}

func parsePositive(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return n, nil
}

// window cuts the requested page out of docs, which hold the full result
// set in order.
func window(docs []document.Document, req PageRequest) []document.Document {
	start := req.Offset()
	if start >= len(docs) {
		return []document.Document{}
	}
	end := min(start+req.Limit, len(docs))
	return docs[start:end]
}

func newPage(items []document.Document, total int, req PageRequest) Page {
	if items == nil {
		items = []document.Document{}
	}
	pages := 0
	if total > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return Page{
		Items:       items,
		Page:        req.Page,
		Limit:       req.Limit,
		TotalItems:  total,
		TotalPages:  pages,
		HasNextPage: req.Page < pages,
		HasPrevPage: req.Page > 1,
	}
}
