package store

import (
	"context"
	"sync"
	"time"

	"github.com/vidnest/vidnest-go/internal/document"
)

// Memory is an insertion-ordered in-process store. Documents are cloned on
// the way in and out so callers never share state with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[Collection][]document.Document
	now  func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[Collection][]document.Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for timestamps. Intended for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Insert(ctx context.Context, c Collection, d document.Document) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := prepareInsert(d, m.now())
	if m.violatesUnique(c, doc, -1) {
		return nil, ErrDuplicate
	}
	m.data[c] = append(m.data[c], doc)
	return doc.Clone(), nil
}

func (m *Memory) Find(ctx context.Context, c Collection, f Filter) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]document.Document, 0)
	for _, d := range m.data[c] {
		if f.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (m *Memory) FindOne(ctx context.Context, c Collection, f Filter) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.data[c] {
		if f.Matches(d) {
			return d.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Update(ctx context.Context, c Collection, f Filter, u Update) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.data[c]
	for i, d := range docs {
		if !f.Matches(d) {
			continue
		}
		next := d.Clone()
		u.Apply(next, m.now())
		if m.violatesUnique(c, next, i) {
			return nil, ErrDuplicate
		}
		docs[i] = next
		return next.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) Delete(ctx context.Context, c Collection, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.data[c]
	kept := docs[:0]
	var n int64
	for _, d := range docs {
		if f.Matches(d) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	m.data[c] = kept
	return n, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// violatesUnique reports whether doc collides with any stored document other
// than the one at index skip. Caller holds the lock.
func (m *Memory) violatesUnique(c Collection, doc document.Document, skip int) bool {
	id := doc.ID()
	for i, other := range m.data[c] {
		if i != skip && other.ID() == id {
			return true
		}
	}
	for _, k := range UniqueKeys[c] {
		want, ok := k.uniqueValue(doc)
		if !ok {
			continue
		}
		for i, other := range m.data[c] {
			if i == skip {
				continue
			}
			if got, ok := k.uniqueValue(other); ok && got == want {
				return true
			}
		}
	}
	return false
}
