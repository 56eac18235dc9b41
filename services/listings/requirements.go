package listings

import (
	"context"
	"fmt"
	"strings"

	"meramarket/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListRequirements returns one page of requirements, newest first.
func (s *Service) ListRequirements(ctx context.Context, filters models.RequirementFilters, page models.PageRequest) (models.Page[models.Requirement], error) {
	store, err := s.store(ctx)
	if err != nil {
		return models.Page[models.Requirement]{}, err
	}

	q := models.RequirementQuery{Filters: filters}
	if filters.Near == nil {
		p := page.Normalize()
		q.Page = &p
		return store.QueryRequirements(ctx, q)
	}

	g, err := s.geo(ctx)
	if err != nil {
		return models.Page[models.Requirement]{}, err
	}
	near := filters.Near
	q.Cells = g.Cells(near.Lat, near.Lng, near.RadiusKm)
	all, err := store.QueryRequirements(ctx, q)
	if err != nil {
		return models.Page[models.Requirement]{}, err
	}
	kept := all.Items[:0]
	for _, r := range all.Items {
		if g.Distance(near.Lat, near.Lng, r.Location.Lat, r.Location.Lng) <= near.RadiusKm {
			kept = append(kept, r)
		}
	}
	return models.Paginate(kept, page), nil
}

func (s *Service) GetRequirement(ctx context.Context, id string) (*models.Requirement, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	return store.GetRequirement(ctx, id)
}

// CreateRequirement posts an active requirement that expires after
// RequirementLifetime.
func (s *Service) CreateRequirement(ctx context.Context, user *models.User, in models.RequirementInput) (*models.Requirement, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	if err := validateRequirement(in.Title, in.Description, in.Category, in.Subcategory, in.Budget); err != nil {
		return nil, err
	}
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &models.Requirement{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Budget:      in.Budget,
		Location:    in.Location,
		UserID:      user.ID,
		UserName:    user.Name,
		UserPhone:   firstNonEmpty(in.UserPhone, user.Phone),
		Status:      models.RequirementActive,
		Moderation:  models.ModerationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(RequirementLifetime),
	}
	if err := s.indexLocation(ctx, &r.Location); err != nil {
		return nil, err
	}
	if err := store.InsertRequirement(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create requirement: %w", err)
	}
	s.logger.Info("Requirement created", zap.String("requirementId", r.ID), zap.String("userId", user.ID))
	return r, nil
}

func (s *Service) UpdateRequirement(ctx context.Context, actor *models.User, id string, upd models.RequirementUpdate) (*models.Requirement, error) {
	return s.requirementTransition(ctx, actor, id, func(r *models.Requirement) error {
		upd.Apply(r)
		if err := validateRequirement(r.Title, r.Description, r.Category, r.Subcategory, r.Budget); err != nil {
			return err
		}
		if upd.Location != nil {
			return s.indexLocation(ctx, &r.Location)
		}
		return nil
	})
}

func (s *Service) DeleteRequirement(ctx context.Context, actor *models.User, id string) error {
	store, err := s.store(ctx)
	if err != nil {
		return err
	}
	r, err := store.GetRequirement(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, r.UserID) {
		return ErrForbidden
	}
	return store.DeleteRequirement(ctx, id)
}

// CloseRequirement marks an active requirement fulfilled or cancelled.
func (s *Service) CloseRequirement(ctx context.Context, actor *models.User, id string, status models.RequirementStatus) (*models.Requirement, error) {
	if status != models.RequirementFulfilled && status != models.RequirementCancelled {
		return nil, fmt.Errorf("%w: cannot close a requirement as %q", ErrInvalidInput, status)
	}
	return s.requirementTransition(ctx, actor, id, func(r *models.Requirement) error {
		if r.Status != models.RequirementActive {
			return fmt.Errorf("%w: requirement is %s", ErrInvalidState, r.Status)
		}
		r.Status = status
		return nil
	})
}

// ModerateRequirement records an admin decision. Rejected requirements are
// cancelled.
func (s *Service) ModerateRequirement(ctx context.Context, id string, decision models.ModerationDecision) (*models.Requirement, error) {
	return s.requirementTransition(ctx, nil, id, func(r *models.Requirement) error {
		r.ModerationReason = decision.Reason
		switch decision.Action {
		case models.ActionApprove:
			r.Moderation = models.ModerationApproved
		case models.ActionReject:
			r.Moderation = models.ModerationRejected
			r.Status = models.RequirementCancelled
		default:
			return fmt.Errorf("%w: unknown moderation action %q", ErrInvalidInput, decision.Action)
		}
		return nil
	})
}

func (s *Service) ExpireRequirements(ctx context.Context) (int, error) {
	store, err := s.store(ctx)
	if err != nil {
		return 0, err
	}
	return store.ExpireRequirements(ctx, s.now())
}

func (s *Service) requirementTransition(ctx context.Context, actor *models.User, id string, fn func(*models.Requirement) error) (*models.Requirement, error) {
	store, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	r, err := store.GetRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && !canModify(actor, r.UserID) {
		return nil, ErrForbidden
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	if err := store.SaveRequirement(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func validateRequirement(title, description, category, subcategory string, budget models.Budget) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if budget.Min < 0 || (budget.Max > 0 && budget.Max < budget.Min) {
		return fmt.Errorf("%w: budget range is invalid", ErrInvalidInput)
	}
	if !validCategory(category, subcategory) {
		return fmt.Errorf("%w: unknown category %q/%q", ErrInvalidInput, category, subcategory)
	}
	return checkContactInfo(map[string]string{"title": title, "description": description})
}
