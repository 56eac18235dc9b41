package listings

import (
	"context"
	"sort"
	"sync"
	"time"

	"meramarket/models"

	"github.com/mmcloughlin/geohash"
)

// MockStore keeps listings and requirements in memory, seeded with sample
// data on construction.
type MockStore struct {
	mu           sync.RWMutex
	listings     map[string]*models.Listing
	requirements map[string]*models.Requirement
}

func NewMockStore() *MockStore {
	s := &MockStore{
		listings:     make(map[string]*models.Listing),
		requirements: make(map[string]*models.Requirement),
	}
	s.seed(time.Now())
	return s
}

// NewEmptyMockStore returns a store without sample data.
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		listings:     make(map[string]*models.Listing),
		requirements: make(map[string]*models.Requirement),
	}
}

func (s *MockStore) seed(now time.Time) {
	day := 24 * time.Hour
	cp := models.Location{Lat: 28.6139, Lng: 77.2090, Address: "Connaught Place", City: "New Delhi", State: "Delhi", Pincode: "110001"}
	rohini := models.Location{Lat: 28.7041, Lng: 77.1025, Address: "Rohini Sector 7", City: "New Delhi", State: "Delhi", Pincode: "110085"}
	cp.Geohash = geohash.EncodeWithPrecision(cp.Lat, cp.Lng, 9)
	rohini.Geohash = geohash.EncodeWithPrecision(rohini.Lat, rohini.Lng, 9)
	in30 := now.Add(30 * day)
	in45 := now.Add(45 * day)

	for _, l := range []*models.Listing{
		{
			ID:            "listing-1",
			Title:         "iPhone 13 Pro - Excellent Condition",
			Description:   "Selling my iPhone 13 Pro in excellent condition. Comes with original box and charger.",
			Price:         65000,
			Category:      "electronics",
			Subcategory:   "mobile-phones",
			Images:        []string{"https://images.pexels.com/photos/164595/pexels-photo-164595.jpeg"},
			Location:      cp,
			SellerID:      "user-1",
			SellerName:    "Raj Kumar",
			SellerPhone:   "+919876543210",
			Status:        models.ListingActive,
			PaymentStatus: models.PaymentStatusPaid,
			Moderation:    models.ModerationApproved,
			CreatedAt:     now.Add(-day),
			UpdatedAt:     now.Add(-day),
			ExpiresAt:     &in30,
			Views:         156,
			Favorites:     23,
		},
		{
			ID:            "listing-2",
			Title:         "Royal Enfield Classic 350",
			Description:   "Well maintained Royal Enfield Classic 350. Single owner, all papers clear.",
			Price:         125000,
			Category:      "vehicles",
			Subcategory:   "motorcycles",
			Images:        []string{"https://images.pexels.com/photos/276517/pexels-photo-276517.jpeg"},
			Location:      rohini,
			SellerID:      "user-2",
			SellerName:    "Priya Sharma",
			SellerPhone:   "+919876543211",
			Status:        models.ListingActive,
			PaymentStatus: models.PaymentStatusPaid,
			Moderation:    models.ModerationApproved,
			CreatedAt:     now.Add(-2 * day),
			UpdatedAt:     now.Add(-2 * day),
			ExpiresAt:     &in45,
			Views:         89,
			Favorites:     12,
		},
	} {
		s.listings[l.ID] = l
	}

	s.requirements["requirement-1"] = &models.Requirement{
		ID:          "requirement-1",
		Title:       "Looking for a second-hand study table",
		Description: "Need a sturdy wooden study table, delivery within South Delhi preferred.",
		Category:    "home-garden",
		Subcategory: "furniture",
		Budget:      models.Budget{Min: 2000, Max: 5000},
		Location:    cp,
		UserID:      "user-2",
		UserName:    "Priya Sharma",
		UserPhone:   "+919876543211",
		Status:      models.RequirementActive,
		Moderation:  models.ModerationApproved,
		CreatedAt:   now.Add(-3 * day),
		UpdatedAt:   now.Add(-3 * day),
		ExpiresAt:   now.Add(27 * day),
	}
}

func (s *MockStore) QueryListings(_ context.Context, q models.ListingQuery) (models.Page[models.Listing], error) {
	s.mu.RLock()
	matched := make([]models.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if q.Matches(l) {
			matched = append(matched, cloneListing(l))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if q.Page == nil {
		return models.Page[models.Listing]{Items: matched, Total: len(matched)}, nil
	}
	return models.Paginate(matched, *q.Page), nil
}

func (s *MockStore) GetListing(_ context.Context, id string) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneListing(l)
	return &out, nil
}

func (s *MockStore) InsertListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneListing(l)
	s.listings[l.ID] = &c
	return nil
}

func (s *MockStore) SaveListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[l.ID]; !ok {
		return ErrNotFound
	}
	c := cloneListing(l)
	s.listings[l.ID] = &c
	return nil
}

func (s *MockStore) DeleteListing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

func (s *MockStore) IncrementListingViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Views++
	return nil
}

func (s *MockStore) ExpireListings(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.listings {
		if l.Status == models.ListingActive && l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
			l.Status = models.ListingExpired
			l.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *MockStore) QueryRequirements(_ context.Context, q models.RequirementQuery) (models.Page[models.Requirement], error) {
	s.mu.RLock()
	matched := make([]models.Requirement, 0, len(s.requirements))
	for _, r := range s.requirements {
		if q.Matches(r) {
			matched = append(matched, *r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if q.Page == nil {
		return models.Page[models.Requirement]{Items: matched, Total: len(matched)}, nil
	}
	return models.Paginate(matched, *q.Page), nil
}

func (s *MockStore) GetRequirement(_ context.Context, id string) (*models.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requirements[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *MockStore) InsertRequirement(_ context.Context, r *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.requirements[r.ID] = &c
	return nil
}

func (s *MockStore) SaveRequirement(_ context.Context, r *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[r.ID]; !ok {
		return ErrNotFound
	}
	c := *r
	s.requirements[r.ID] = &c
	return nil
}

func (s *MockStore) DeleteRequirement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requirements[id]; !ok {
		return ErrNotFound
	}
	delete(s.requirements, id)
	return nil
}

func (s *MockStore) ExpireRequirements(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requirements {
		if r.Status == models.RequirementActive && r.ExpiresAt.Before(now) {
			r.Status = models.RequirementExpired
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func cloneListing(l *models.Listing) models.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	return c
}
