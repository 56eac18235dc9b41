package models

import "strings"

// ListingQuery is what a data provider is asked for. Cells, when set, are
// geohash prefixes; a listing must lie in one of them. A nil Page asks for
// every match.
type ListingQuery struct {
	Filters ListingFilters
	Cells   []string
	Page    *PageRequest
}

// Matches reports whether l satisfies every non-geo filter and the cells.
func (q ListingQuery) Matches(l *Listing) bool {
	f := q.Filters
	switch {
	case f.Category != "" && l.Category != f.Category:
		return false
	case f.Subcategory != "" && l.Subcategory != f.Subcategory:
		return false
	case f.MinPrice > 0 && l.Price < f.MinPrice:
		return false
	case f.MaxPrice > 0 && l.Price > f.MaxPrice:
		return false
	case f.SellerID != "" && l.SellerID != f.SellerID:
		return false
	case f.Status != "" && l.Status != f.Status:
		return false
	case f.Moderation != "" && l.Moderation != f.Moderation:
		return false
	}
	if f.Query != "" && !containsFold(f.Query, l.Title, l.Description) {
		return false
	}
	return InCells(l.Location.Geohash, q.Cells)
}

// RequirementQuery mirrors ListingQuery for requirements.
type RequirementQuery struct {
	Filters RequirementFilters
	Cells   []string
	Page    *PageRequest
}

func (q RequirementQuery) Matches(r *Requirement) bool {
	f := q.Filters
	switch {
	case f.Category != "" && r.Category != f.Category:
		return false
	case f.Subcategory != "" && r.Subcategory != f.Subcategory:
		return false
	case f.MinBudget > 0 && r.Budget.Max < f.MinBudget:
		return false
	case f.MaxBudget > 0 && r.Budget.Min > f.MaxBudget:
		return false
	case f.UserID != "" && r.UserID != f.UserID:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Moderation != "" && r.Moderation != f.Moderation:
		return false
	}
	if f.Query != "" && !containsFold(f.Query, r.Title, r.Description) {
		return false
	}
	return InCells(r.Location.Geohash, q.Cells)
}

// InCells reports whether hash starts with one of cells. No cells means
// no restriction.
func InCells(hash string, cells []string) bool {
	if len(cells) == 0 {
		return true
	}
	for _, c := range cells {
		if strings.HasPrefix(hash, c) {
			return true
		}
	}
	return false
}

func containsFold(query string, fields ...string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
