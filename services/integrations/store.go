package integrations

import (
	"context"
	"sync"
)

// SelectionStore persists the provider name chosen for each category.
// Get returns "" when nothing has been recorded.
type SelectionStore interface {
	Get(ctx context.Context, category Category) (string, error)
	Set(ctx context.Context, category Category, provider string) error
}

// MemoryStore keeps selections for the lifetime of the process.
type MemoryStore struct {
	mu         sync.RWMutex
	selections map[Category]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{selections: make(map[Category]string)}
}

func (s *MemoryStore) Get(_ context.Context, category Category) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selections[category], nil
}

func (s *MemoryStore) Set(_ context.Context, category Category, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[category] = provider
	return nil
}
