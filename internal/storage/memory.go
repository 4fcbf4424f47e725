package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dshills/blockedit/internal/document"
)

// Memory is an in-process Store. Documents are deep copied on the way in
// and out.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]document.Document)}
}

// LoadDocument implements Storage.
func (m *Memory) LoadDocument(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := doc.Clone()
	return &out, nil
}

// SaveDocument implements Storage.
func (m *Memory) SaveDocument(_ context.Context, id string, doc document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[id] = doc.Clone()
	return nil
}

// ListDocuments implements Store.
func (m *Memory) ListDocuments(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
