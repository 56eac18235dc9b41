package billing

import (
	"fmt"
	"sync"
	"time"

	"meramarket/models"
)

// Default prices (INR) and durations (days).
const (
	DefaultContactPassPrice       = 20
	DefaultContactPassDuration    = 15
	DefaultListingPrice           = 50
	DefaultListingDuration        = 60
	DefaultViewContactsAddonPrice = 20

	// auditLimit is how many pricing changes are remembered.
	auditLimit = 50
)

func DefaultPricing() models.Pricing {
	return models.Pricing{
		ContactPassPrice:       DefaultContactPassPrice,
		ContactPassDuration:    DefaultContactPassDuration,
		ListingPrice:           DefaultListingPrice,
		ListingDuration:        DefaultListingDuration,
		ViewContactsAddonPrice: DefaultViewContactsAddonPrice,
	}
}

// pricingBook holds the current prices and their change history.
type pricingBook struct {
	mu      sync.RWMutex
	current models.Pricing
	audit   []models.PricingAuditEntry
}

func newPricingBook(p models.Pricing) *pricingBook {
	return &pricingBook{current: p}
}

func (b *pricingBook) get() models.Pricing {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// history returns the audit log, newest first.
func (b *pricingBook) history() []models.PricingAuditEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.PricingAuditEntry, len(b.audit))
	for i, e := range b.audit {
		out[len(b.audit)-1-i] = e
	}
	return out
}

func (b *pricingBook) update(upd models.PricingUpdate, by string, at time.Time) (models.Pricing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.current
	changes := map[string]int{}
	previous := map[string]int{}
	fields := []struct {
		name string
		in   *int
		dst  *int
		min  int
	}{
		{"contactPassPrice", upd.ContactPassPrice, &next.ContactPassPrice, 1},
		{"contactPassDuration", upd.ContactPassDuration, &next.ContactPassDuration, 1},
		{"listingPrice", upd.ListingPrice, &next.ListingPrice, 1},
		{"listingDuration", upd.ListingDuration, &next.ListingDuration, 1},
		{"viewContactsAddonPrice", upd.ViewContactsAddonPrice, &next.ViewContactsAddonPrice, 1},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		if *f.in < f.min {
			return b.current, fmt.Errorf("%w: %s must be at least %d", ErrInvalidPricing, f.name, f.min)
		}
		if *f.in == *f.dst {
			continue
		}
		previous[f.name] = *f.dst
		changes[f.name] = *f.in
		*f.dst = *f.in
	}
	if len(changes) == 0 {
		return b.current, nil
	}

	b.current = next
	b.audit = append(b.audit, models.PricingAuditEntry{
		Timestamp:      at,
		Changes:        changes,
		PreviousValues: previous,
		UpdatedBy:      by,
	})
	if len(b.audit) > auditLimit {
		b.audit = append([]models.PricingAuditEntry(nil), b.audit[len(b.audit)-auditLimit:]...)
	}
	return b.current, nil
}
