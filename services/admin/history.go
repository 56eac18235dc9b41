package admin

import (
	"context"
	"sort"
	"sync"

	"meramarket/models"
)

// HistoryStore records moderation actions.
type HistoryStore interface {
	Add(ctx context.Context, a *models.ModerationAction) error
	// List returns matching actions newest first.
	List(ctx context.Context, f models.HistoryFilters, page models.PageRequest) (models.Page[models.ModerationAction], error)
}

// MemoryHistory keeps actions for the lifetime of the process.
type MemoryHistory struct {
	mu      sync.RWMutex
	actions []models.ModerationAction
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Add(_ context.Context, a *models.ModerationAction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, *a)
	return nil
}

func (h *MemoryHistory) List(_ context.Context, f models.HistoryFilters, page models.PageRequest) (models.Page[models.ModerationAction], error) {
	h.mu.RLock()
	matched := make([]models.ModerationAction, 0, len(h.actions))
	for _, a := range h.actions {
		if f.EntityType != "" && a.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != "" && a.EntityID != f.EntityID {
			continue
		}
		matched = append(matched, a)
	}
	h.mu.RUnlock()

	// Appends are chronological; the stable sort keeps same-instant actions
	// in reverse insertion order.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return models.Paginate(matched, page), nil
}
