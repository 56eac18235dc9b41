package payments

import (
	"context"
	"sort"
	"sync"

	"meramarket/models"
)

// MemoryLedger keeps payments for the lifetime of the process.
type MemoryLedger struct {
	mu       sync.RWMutex
	payments map[string]models.Payment
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{payments: make(map[string]models.Payment)}
}

func (l *MemoryLedger) Insert(_ context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p.Version = 1
	l.payments[p.ID] = clonePayment(p)
	return nil
}

// Save replaces the stored payment if it still carries p.Version, then bumps
// the version on both copies.
func (l *MemoryLedger) Save(_ context.Context, p *models.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored, ok := l.payments[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrConflict
	}
	p.Version++
	l.payments[p.ID] = clonePayment(p)
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, id string) (*models.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := clonePayment(&p)
	return &c, nil
}

func (l *MemoryLedger) Query(_ context.Context, f models.PaymentFilters, page models.PageRequest) (models.Page[models.Payment], error) {
	l.mu.RLock()
	matched := make([]models.Payment, 0, len(l.payments))
	for _, p := range l.payments {
		if MatchesFilters(&p, f) {
			matched = append(matched, clonePayment(&p))
		}
	}
	l.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return models.Paginate(matched, page), nil
}

func (l *MemoryLedger) Revenue(_ context.Context) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var sum float64
	for _, p := range l.payments {
		if p.Status == models.PaymentCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

// MatchesFilters reports whether p satisfies every set filter. DateTo is
// inclusive of the whole day.
func MatchesFilters(p *models.Payment, f models.PaymentFilters) bool {
	switch {
	case f.UserID != "" && p.UserID != f.UserID:
		return false
	case f.Status != "" && p.Status != f.Status:
		return false
	case f.Type != "" && p.Type != f.Type:
		return false
	case f.EntityID != "" && p.EntityID != f.EntityID:
		return false
	case f.DateFrom != nil && p.CreatedAt.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && !p.CreatedAt.Before(f.DateTo.AddDate(0, 0, 1)):
		return false
	}
	return true
}

func clonePayment(p *models.Payment) models.Payment {
	c := *p
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		c.CompletedAt = &t
	}
	if p.RefundedAt != nil {
		t := *p.RefundedAt
		c.RefundedAt = &t
	}
	if p.GrantedAt != nil {
		t := *p.GrantedAt
		c.GrantedAt = &t
	}
	return c
}
