package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/stepgraph/stepgraph/pkg/graphio"
)

// MemoryStore keeps layouts in a map. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	layouts map[string]graphio.Layout
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string]graphio.Layout)}
}

// Save stores a layout, assigning an ID when missing.
func (s *MemoryStore) Save(ctx context.Context, l graphio.Layout) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.layouts[l.ID] = l
	s.mu.Unlock()
	return l.ID, nil
}

// Get retrieves a layout by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (graphio.Layout, error) {
	s.mu.RLock()
	l, ok := s.layouts[id]
	s.mu.RUnlock()
	if !ok {
		return graphio.Layout{}, ErrNotFound
	}
	return l, nil
}

// List returns all stored layouts sorted by ID for stable output.
func (s *MemoryStore) List(ctx context.Context) ([]graphio.Layout, error) {
	s.mu.RLock()
	out := make([]graphio.Layout, 0, len(s.layouts))
	for _, l := range s.layouts {
		out = append(out, l)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b graphio.Layout) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

// Delete removes a layout.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[id]; !ok {
		return ErrNotFound
	}
	delete(s.layouts, id)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
