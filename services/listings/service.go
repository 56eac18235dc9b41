package listings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meramarket/models"
	"meramarket/services/geo"
	"meramarket/services/integrations"
	"meramarket/services/sanitize"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequirementLifetime is how long a new requirement stays active.
const RequirementLifetime = 30 * 24 * time.Hour

// Service applies marketplace rules on top of the active data provider.
type Service struct {
	registry *integrations.Registry
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(registry *integrations.Registry, logger *zap.Logger) *Service {
	return &Service{registry: registry, logger: logger, now: time.Now}
}

func (s *Service) store(ctx context.Context) (Store, error) {
	return integrations.Resolve[Store](ctx, s.registry, integrations.CategoryData)
}

func (s *Service) geo(ctx context.Context) (geo.Service, error) {
	return integrations.Resolve[geo.Service](ctx, s.registry, integrations.CategoryGeo)
}

// Categories returns the listing taxonomy.
func (s *Service) Categories() []models.Category {
	return Categories()
}

// List returns one page of listings, newest first. A location filter is
// narrowed by the geo provider's cells and then checked by exact distance.
func (s *Service) List(ctx context.Context, filters models.ListingFilters, page models.PageRequest) (models.Page[models.Listing], error) {
	store, err := s.store(ctx)
	if err != nil {
		return models.Page[models.Listing]{}, err
	}

	q := models.ListingQuery{Filters: filters}
	if filters.Near == nil {
		p := page.Normalize()
		q.Page = &p
		return store.QueryListings(ctx, q)
	}

	g, err := s.geo(ctx)
	if err != nil {
		return models.Page[models.Listing]{}, err
	}
	near := filters.Near
	q.Cells = g.Cells(near.Lat, near.Lng, near.RadiusKm)
	all, err := store.QueryListings(ctx, q)
	if err != nil {
		return models.Page[models.Listing]{}, err
	}
	kept := all.Items[:0]
	for _, l := range all.Items {
		if g.Distance(near.Lat, near.Lng, l.Location.Lat, l.Location.Lng) <= near.RadiusKm {
			kept = append(kept, l)
		}
	}
	return models.Paginate(kept, page), nil
}

// Get returns a listing without counting a view.
func (s *Service) Get(ctx context.Context, id string) (*models.Listing, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.GetListing(ctx, id)
}

// View returns a listing and counts the view.
func (s *Service) View(ctx context.Context, id string) (*models.Listing, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.IncrementListingViews(ctx, id); err != nil {
		return nil, err
	}
	return store.GetListing(ctx, id)
}

// Create stores a new draft listing owned by seller.
func (s *Service) Create(ctx context.Context, seller *models.User, in models.ListingInput) (*models.Listing, error) {
	if seller == nil {
		return nil, ErrForbidden
	}
	if err := validateListing(in.Title, in.Description, in.Category, in.Subcategory, in.Price); err != nil {
		return nil, err
	}
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	l := &models.Listing{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
		Images:        append([]string{}, in.Images...),
		Location:      in.Location,
		SellerID:      seller.ID,
		SellerName:    seller.Name,
		SellerPhone:   firstNonEmpty(in.SellerPhone, seller.Phone),
		Status:        models.ListingDraft,
		PaymentStatus: models.PaymentStatusPending,
		Moderation:    models.ModerationPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.indexLocation(ctx, &l.Location); err != nil {
		return nil, err
	}
	if err := store.InsertListing(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	s.logger.Info("Listing created", zap.String("listingId", l.ID), zap.String("sellerId", seller.ID))
	return l, nil
}

// Update applies a partial update by the owner or an admin.
func (s *Service) Update(ctx context.Context, actor *models.User, id string, upd models.ListingUpdate) (*models.Listing, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	l, err := store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, l.SellerID) {
		return nil, ErrForbidden
	}

	upd.Apply(l)
	if err := validateListing(l.Title, l.Description, l.Category, l.Subcategory, l.Price); err != nil {
		return nil, err
	}
	if upd.Location != nil {
		if err := s.indexLocation(ctx, &l.Location); err != nil {
			return nil, err
		}
	}
	l.UpdatedAt = s.now()
	if err := store.SaveListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a listing owned by actor (or any listing for admins).
func (s *Service) Delete(ctx context.Context, actor *models.User, id string) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	l, err := store.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, l.SellerID) {
		return ErrForbidden
	}
	return store.DeleteListing(ctx, id)
}

// Publish submits a listing for payment. Drafts, expired and rejected
// listings can be published.
func (s *Service) Publish(ctx context.Context, actor *models.User, id string) (*models.Listing, error) {
	return s.transition(ctx, actor, id, func(l *models.Listing) error {
		switch l.Status {
		case models.ListingDraft, models.ListingExpired, models.ListingRejected:
		default:
			return fmt.Errorf("%w: cannot publish a %s listing", ErrInvalidState, l.Status)
		}
		if l.Status == models.ListingRejected {
			l.Moderation = models.ModerationPending
			l.ModerationReason = ""
		}
		l.Status = models.ListingPendingPayment
		l.PaymentStatus = models.PaymentStatusPending
		return nil
	})
}

// MarkSold closes an active listing.
func (s *Service) MarkSold(ctx context.Context, actor *models.User, id string) (*models.Listing, error) {
	return s.transition(ctx, actor, id, func(l *models.Listing) error {
		if l.Status != models.ListingActive {
			return fmt.Errorf("%w: only active listings can be sold", ErrInvalidState)
		}
		l.Status = models.ListingSold
		return nil
	})
}

// Activate makes a paid listing visible until the given time.
func (s *Service) Activate(ctx context.Context, id string, until time.Time) (*models.Listing, error) {
	return s.transition(ctx, nil, id, func(l *models.Listing) error {
		switch l.Status {
		case models.ListingPendingPayment, models.ListingActive, models.ListingExpired:
		default:
			return fmt.Errorf("%w: cannot activate a %s listing", ErrInvalidState, l.Status)
		}
		l.Status = models.ListingActive
		l.PaymentStatus = models.PaymentStatusPaid
		l.ExpiresAt = &until
		return nil
	})
}

// MarkPaymentFailed records a failed listing fee.
func (s *Service) MarkPaymentFailed(ctx context.Context, id string) error {
	_, err := s.transition(ctx, nil, id, func(l *models.Listing) error {
		l.PaymentStatus = models.PaymentStatusFailed
		return nil
	})
	return err
}

// Moderate records an admin decision on a listing.
func (s *Service) Moderate(ctx context.Context, id string, decision models.ModerationDecision) (*models.Listing, error) {
	return s.transition(ctx, nil, id, func(l *models.Listing) error {
		l.ModerationReason = decision.Reason
		switch decision.Action {
		case models.ActionApprove:
			l.Moderation = models.ModerationApproved
		case models.ActionReject:
			l.Moderation = models.ModerationRejected
			l.Status = models.ListingRejected
		default:
			return fmt.Errorf("%w: unknown moderation action %q", ErrInvalidInput, decision.Action)
		}
		return nil
	})
}

// ExpireListings expires active listings past their expiry.
func (s *Service) ExpireListings(ctx context.Context) (int, error) {
	store, err := s.store(ctx)
	if err != nil {
		return 0, err
	}
	return store.ExpireListings(ctx, s.now())
}

// transition loads a listing, applies fn and saves it. A nil actor skips the
// ownership check; it is used for system-driven changes.
func (s *Service) transition(ctx context.Context, actor *models.User, id string, fn func(*models.Listing) error) (*models.Listing, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	l, err := store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && !canModify(actor, l.SellerID) {
		return nil, ErrForbidden
	}
	if err := fn(l); err != nil {
		return nil, err
	}
	l.UpdatedAt = s.now()
	if err := store.SaveListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) indexLocation(ctx context.Context, loc *models.Location) error {
	if loc.Lat == 0 && loc.Lng == 0 {
		loc.Geohash = ""
		return nil
	}
	g, err := s.geo(ctx)
	if err != nil {
		return err
	}
	loc.Geohash = g.Geohash(loc.Lat, loc.Lng)
	return nil
}

func validateListing(title, description, category, subcategory string, price float64) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if !validCategory(category, subcategory) {
		return fmt.Errorf("%w: unknown category %q/%q", ErrInvalidInput, category, subcategory)
	}
	return checkContactInfo(map[string]string{"title": title, "description": description})
}

// checkContactInfo rejects free text carrying contact details. Fields are
// checked in a fixed order so the reported field is stable.
func checkContactInfo(fields map[string]string) error {
	for _, name := range []string{"title", "description"} {
		text, ok := fields[name]
		if !ok {
			continue
		}
		if v := sanitize.Validate(text); !v.IsValid {
			return &ContactInfoError{Field: name, Violations: v.Errors}
		}
	}
	return nil
}

func canModify(actor *models.User, ownerID string) bool {
	return actor != nil && (actor.ID == ownerID || actor.IsAdmin())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
