package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

const memoryScheme = "mem://"

// Memory keeps objects in process. Used by tests and MEDIA_DRIVER=memory.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int

	// FailPut, when set, is consulted before each upload.
	FailPut func(obj Object) error
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.FailPut != nil {
		if err := m.FailPut(obj); err != nil {
			return "", err
		}
	}
	if obj.Body == nil {
		return "", errors.New("media: empty body")
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("%s%d%s", memoryScheme, m.seq, strings.ToLower(path.Ext(obj.Name)))
	m.objects[ref] = data
	return ref, nil
}

func (m *Memory) Delete(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !strings.HasPrefix(ref, memoryScheme) {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	delete(m.objects, ref)
	return ok, nil
}

// Has reports whether ref is stored.
func (m *Memory) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	return ok
}

// Len is the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
