// Package admin backs the admin dashboard: statistics, user management,
// moderation queues and the moderation history.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/billing"
	"meramarket/services/integrations"
	"meramarket/services/listings"
	"meramarket/services/payments"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActiveWindow is how recently a user must have signed in to count as
// active.
const ActiveWindow = 30 * 24 * time.Hour

var (
	ErrForbidden  = errors.New("admin role required")
	ErrSelfAction = errors.New("admins cannot demote or suspend themselves")
)

type Service struct {
	registry *integrations.Registry
	listings *listings.Service
	payments *payments.Service
	billing  *billing.Service
	history  HistoryStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(registry *integrations.Registry, list *listings.Service, pay *payments.Service, bill *billing.Service, history HistoryStore, logger *zap.Logger) *Service {
	if history == nil {
		history = NewMemoryHistory()
	}
	return &Service{
		registry: registry,
		listings: list,
		payments: pay,
		billing:  bill,
		history:  history,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) auth(ctx context.Context) (auth.Service, error) {
	return integrations.Resolve[auth.Service](ctx, s.registry, integrations.CategoryAuth)
}

// Stats summarises the marketplace. Counts come from the active providers;
// revenue sums completed payments in the ledger.
func (s *Service) Stats(ctx context.Context) (*models.AdminStats, error) {
	a, err := s.auth(ctx)
	if err != nil {
		return nil, err
	}
	one := models.PageRequest{Page: 1, Limit: 1}
	stats := &models.AdminStats{}

	since := s.now().Add(-ActiveWindow)
	for p := 1; ; p++ {
		page, err := a.ListUsers(ctx, models.UserFilters{}, models.PageRequest{Page: p, Limit: models.MaxPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		stats.TotalUsers = page.Total
		for _, u := range page.Items {
			if u.LastLoginAt != nil && u.LastLoginAt.After(since) {
				stats.ActiveUsers++
			}
		}
		if !page.HasMore {
			break
		}
	}

	ls, err := s.listings.List(ctx, models.ListingFilters{}, one)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}
	stats.TotalListings = ls.Total

	rs, err := s.listings.ListRequirements(ctx, models.RequirementFilters{}, one)
	if err != nil {
		return nil, fmt.Errorf("failed to count requirements: %w", err)
	}
	stats.TotalRequirements = rs.Total

	pl, err := s.listings.List(ctx, models.ListingFilters{Moderation: models.ModerationPending}, one)
	if err != nil {
		return nil, err
	}
	pr, err := s.listings.ListRequirements(ctx, models.RequirementFilters{Moderation: models.ModerationPending}, one)
	if err != nil {
		return nil, err
	}
	stats.PendingApprovals = pl.Total + pr.Total

	ps, err := s.payments.Query(ctx, models.PaymentFilters{}, one)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	stats.TotalPayments = ps.Total
	if stats.Revenue, err = s.payments.Ledger().Revenue(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Service) Users(ctx context.Context, filters models.UserFilters, page models.PageRequest) (models.Page[models.User], error) {
	a, err := s.auth(ctx)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return a.ListUsers(ctx, filters, page)
}

func (s *Service) UpdateRole(ctx context.Context, admin *models.User, id, role string) (*models.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	if admin.ID == id && role != models.RoleAdmin {
		return nil, ErrSelfAction
	}
	a, err := s.auth(ctx)
	if err != nil {
		return nil, err
	}
	u, err := a.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.record(ctx, admin, models.EntityUser, id, models.ActionRole, role)
	return u, nil
}

func (s *Service) Suspend(ctx context.Context, admin *models.User, id string, change models.SuspensionChange) (*models.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	if admin.ID == id {
		return nil, ErrSelfAction
	}
	a, err := s.auth(ctx)
	if err != nil {
		return nil, err
	}
	u, err := a.Suspend(ctx, id, change.Suspended, change.Reason)
	if err != nil {
		return nil, err
	}
	action := models.ActionSuspend
	if !change.Suspended {
		action = models.ActionReinstate
	}
	s.record(ctx, admin, models.EntityUser, id, action, change.Reason)
	return u, nil
}

// ListingQueue returns listings awaiting moderation, newest first.
func (s *Service) ListingQueue(ctx context.Context, page models.PageRequest) (models.Page[models.Listing], error) {
	return s.listings.List(ctx, models.ListingFilters{Moderation: models.ModerationPending}, page)
}

// RequirementQueue returns requirements awaiting moderation, newest first.
func (s *Service) RequirementQueue(ctx context.Context, page models.PageRequest) (models.Page[models.Requirement], error) {
	return s.listings.ListRequirements(ctx, models.RequirementFilters{Moderation: models.ModerationPending}, page)
}

func (s *Service) ModerateListing(ctx context.Context, admin *models.User, id string, d models.ModerationDecision) (*models.Listing, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	l, err := s.listings.Moderate(ctx, id, d)
	if err != nil {
		return nil, err
	}
	s.record(ctx, admin, models.EntityListing, id, d.Action, d.Reason)
	return l, nil
}

func (s *Service) ModerateRequirement(ctx context.Context, admin *models.User, id string, d models.ModerationDecision) (*models.Requirement, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}
	r, err := s.listings.ModerateRequirement(ctx, id, d)
	if err != nil {
		return nil, err
	}
	s.record(ctx, admin, models.EntityRequirement, id, d.Action, d.Reason)
	return r, nil
}

func (s *Service) History(ctx context.Context, f models.HistoryFilters, page models.PageRequest) (models.Page[models.ModerationAction], error) {
	return s.history.List(ctx, f, page)
}

// record appends to the history. The action itself already happened, so a
// failure here is logged rather than returned.
func (s *Service) record(ctx context.Context, admin *models.User, entityType, entityID, action, reason string) {
	a := &models.ModerationAction{
		ID:          uuid.NewString(),
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Reason:      reason,
		ModeratorID: admin.ID,
		CreatedAt:   s.now(),
	}
	if err := s.history.Add(ctx, a); err != nil {
		s.logger.Error("Failed to record moderation action",
			zap.String("entityType", entityType),
			zap.String("entityId", entityID),
			zap.String("action", action),
			zap.Error(err))
		return
	}
	s.logger.Info("Moderation action",
		zap.String("moderatorId", admin.ID),
		zap.String("entityType", entityType),
		zap.String("entityId", entityID),
		zap.String("action", action))
}
