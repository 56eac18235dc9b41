package interest

import (
	"context"
	"sync"

	"meramarket/models"
)

// MemoryStore keeps records for the lifetime of the process.
type MemoryStore struct {
	mu        sync.RWMutex
	interests map[string][]models.Interest
	questions map[string][]models.Question
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		interests: make(map[string][]models.Interest),
		questions: make(map[string][]models.Question),
	}
}

func (s *MemoryStore) AddInterest(_ context.Context, i *models.Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interests[i.ListingID] = append(s.interests[i.ListingID], *i)
	return nil
}

func (s *MemoryStore) ListInterests(_ context.Context, listingID string) ([]models.Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.interests[listingID]), nil
}

func (s *MemoryStore) AddQuestion(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ListingID] = append(s.questions[q.ListingID], *q)
	return nil
}

func (s *MemoryStore) ListQuestions(_ context.Context, listingID string) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.questions[listingID]), nil
}

func newestFirst[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
