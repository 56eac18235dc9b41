package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"meramarket/models"
	"meramarket/services/integrations"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Currency is the only currency the marketplace charges in.
const Currency = "INR"

// Service runs payments through the active gateway and records them in the
// ledger.
type Service struct {
	registry *integrations.Registry
	ledger   Ledger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(registry *integrations.Registry, ledger Ledger, logger *zap.Logger) *Service {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Service{registry: registry, ledger: ledger, logger: logger, now: time.Now}
}

func (s *Service) gateway(ctx context.Context) (Gateway, error) {
	return integrations.Resolve[Gateway](ctx, s.registry, integrations.CategoryPayments)
}

// Ledger exposes the underlying payment records for reporting.
func (s *Service) Ledger() Ledger {
	return s.ledger
}

// Methods lists the payment methods offered at checkout.
func (s *Service) Methods() []string {
	return slices.Clone(models.PaymentMethods)
}

func (s *Service) Query(ctx context.Context, f models.PaymentFilters, page models.PageRequest) (models.Page[models.Payment], error) {
	return s.ledger.Query(ctx, f, page)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Payment, error) {
	return s.ledger.Get(ctx, id)
}

// Create opens a pending payment with the active gateway.
func (s *Service) Create(ctx context.Context, data models.CreatePaymentData) (*models.Payment, error) {
	if err := validateCreate(data); err != nil {
		return nil, err
	}
	gw, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Payment{
		ID:            uuid.NewString(),
		Amount:        data.Amount,
		Currency:      Currency,
		Status:        models.PaymentPending,
		Type:          data.Type,
		EntityID:      data.EntityID,
		EntityType:    data.EntityType,
		UserID:        data.UserID,
		Provider:      gw.Name(),
		PaymentMethod: data.PaymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := gw.CreateOrder(ctx, p); err != nil {
		return nil, fmt.Errorf("create %s order: %w", gw.Name(), err)
	}
	if err := s.ledger.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.String("paymentID", p.ID),
		zap.String("provider", p.Provider),
		zap.String("type", string(p.Type)),
		zap.Float64("amount", p.Amount))
	return p, nil
}

// Process confirms a pending payment. A declined proof leaves the payment
// failed and is not an error; the caller inspects the returned status.
// The payment is claimed as processing before the gateway is called, so of
// several concurrent calls only one reaches Confirm.
func (s *Service) Process(ctx context.Context, id string, proof models.PaymentProof) (*models.Payment, error) {
	if !slices.Contains(models.PaymentMethods, proof.Method) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidPayment, proof.Method)
	}
	p, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	gw, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}
	if gw.Name() != p.Provider {
		return nil, fmt.Errorf("%w: created with %s, active gateway is %s", ErrGatewayMismatch, p.Provider, gw.Name())
	}

	p.Status = models.PaymentProcessing
	p.PaymentMethod = proof.Method
	p.UpdatedAt = s.now()
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	txID, err := gw.Confirm(ctx, p, proof)
	now := s.now()
	p.UpdatedAt = now
	switch {
	case err == nil:
		p.Status = models.PaymentCompleted
		p.GatewayTransactionID = txID
		p.TransactionID = txID
		p.CompletedAt = &now
	case errors.Is(err, ErrDeclined):
		p.Status = models.PaymentFailed
		p.FailureReason = err.Error()
		s.logger.Warn("Payment declined",
			zap.String("paymentID", p.ID),
			zap.String("provider", p.Provider),
			zap.Error(err))
	default:
		p.Status = models.PaymentPending
		if saveErr := s.ledger.Save(ctx, p); saveErr != nil {
			s.logger.Error("Failed to release payment after gateway error",
				zap.String("paymentID", p.ID),
				zap.Error(saveErr))
		}
		return nil, fmt.Errorf("confirm %s payment: %w", p.Provider, err)
	}

	if err := s.ledger.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Payment processed",
		zap.String("paymentID", p.ID),
		zap.String("status", string(p.Status)))
	return p, nil
}

// SetGranted marks or clears the entitlement of a completed payment. Only
// one caller holding the current version wins; the rest get ErrInvalidState.
func (s *Service) SetGranted(ctx context.Context, p *models.Payment, granted bool) error {
	if p.Status != models.PaymentCompleted {
		return fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	now := s.now()
	p.UpdatedAt = now
	p.GrantedAt = nil
	if granted {
		p.GrantedAt = &now
	}
	return s.save(ctx, p)
}

// save writes p and reports a lost race as ErrInvalidState.
func (s *Service) save(ctx context.Context, p *models.Payment) error {
	err := s.ledger.Save(ctx, p)
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: payment %s was updated by another request", ErrInvalidState, p.ID)
	}
	return err
}

// Refund returns a completed payment through the gateway that took it.
func (s *Service) Refund(ctx context.Context, id, reason string) (*models.Payment, error) {
	p, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidState, p.Status)
	}
	gw, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}
	if gw.Name() != p.Provider {
		return nil, fmt.Errorf("%w: created with %s, active gateway is %s", ErrGatewayMismatch, p.Provider, gw.Name())
	}
	if err := gw.Refund(ctx, p, reason); err != nil {
		return nil, fmt.Errorf("refund %s payment: %w", p.Provider, err)
	}

	now := s.now()
	p.Status = models.PaymentRefunded
	p.RefundReason = reason
	p.RefundedAt = &now
	p.UpdatedAt = now
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Payment refunded", zap.String("paymentID", p.ID), zap.String("reason", reason))
	return p, nil
}

func validateCreate(data models.CreatePaymentData) error {
	switch {
	case data.Amount <= 0 || math.IsNaN(data.Amount) || math.IsInf(data.Amount, 0):
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayment)
	case data.UserID == "":
		return fmt.Errorf("%w: missing user", ErrInvalidPayment)
	case data.EntityID == "":
		return fmt.Errorf("%w: missing entity", ErrInvalidPayment)
	}
	switch data.Type {
	case models.PaymentListingFee, models.PaymentContactPass, models.PaymentContactsAddon:
	default:
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidPayment, data.Type)
	}
	switch data.EntityType {
	case models.EntityListing, models.EntityRequirement, models.EntityUser:
	default:
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidPayment, data.EntityType)
	}
	if data.PaymentMethod != "" && !slices.Contains(models.PaymentMethods, data.PaymentMethod) {
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidPayment, data.PaymentMethod)
	}
	return nil
}

// toMinorUnits converts rupees to paise.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
