// Package billing sells the marketplace's paid entitlements: the contact
// pass, the listing fee and the interested-contacts add-on.
package billing

import (
	"context"
	"fmt"
	"time"

	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/integrations"
	"meramarket/services/listings"
	"meramarket/services/payments"

	"go.uber.org/zap"
)

// Product is something a user can buy.
type Product string

const (
	ProductContactPass       Product = "contact_pass"
	ProductListingFee        Product = "listing_fee"
	ProductViewContactsAddon Product = "contacts_addon"
)

// Checkout is a request to start a purchase. ListingID is required for the
// listing fee and the add-on.
type Checkout struct {
	Product   Product `json:"product" binding:"required,oneof=contact_pass listing_fee contacts_addon"`
	ListingID string  `json:"listingId,omitempty"`
	Method    string  `json:"paymentMethod,omitempty"`
}

// Receipt is the outcome of a completed checkout. User and Listing carry the
// updated records when the payment went through.
type Receipt struct {
	Payment *models.Payment `json:"payment"`
	User    *models.User    `json:"user,omitempty"`
	Listing *models.Listing `json:"listing,omitempty"`
}

// Status summarises a user's entitlements.
type Status struct {
	ContactPassActive bool       `json:"contactPassActive"`
	ContactPassUntil  *time.Time `json:"contactPassUntil,omitempty"`
	DaysRemaining     int        `json:"daysRemaining"`
	Addons            []string   `json:"addons"`
}

type Service struct {
	registry *integrations.Registry
	payments *payments.Service
	listings *listings.Service
	pricing  *pricingBook
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(registry *integrations.Registry, pay *payments.Service, list *listings.Service, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		payments: pay,
		listings: list,
		pricing:  newPricingBook(DefaultPricing()),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) auth(ctx context.Context) (auth.Service, error) {
	return integrations.Resolve[auth.Service](ctx, s.registry, integrations.CategoryAuth)
}

func (s *Service) Pricing() models.Pricing {
	return s.pricing.get()
}

// PricingAudit returns the most recent pricing changes, newest first.
func (s *Service) PricingAudit() []models.PricingAuditEntry {
	return s.pricing.history()
}

// UpdatePricing applies an admin's price change and records it.
func (s *Service) UpdatePricing(_ context.Context, admin *models.User, upd models.PricingUpdate) (models.Pricing, error) {
	if !admin.IsAdmin() {
		return models.Pricing{}, ErrForbidden
	}
	p, err := s.pricing.update(upd, admin.Email, s.now())
	if err != nil {
		return models.Pricing{}, err
	}
	s.logger.Info("Pricing updated", zap.String("by", admin.Email), zap.Any("pricing", p))
	return p, nil
}

// Status reports user's entitlements at the current time.
func (s *Service) Status(user *models.User) Status {
	now := s.now()
	st := Status{
		ContactPassActive: IsContactPassActive(user.Entitlements, now),
		DaysRemaining:     DaysRemaining(user.Entitlements, now),
		Addons:            []string{},
	}
	if st.ContactPassActive {
		st.ContactPassUntil = user.Entitlements.ContactPassUntil
	}
	for id, a := range user.Entitlements.Addons {
		if a.CanViewInterestedContacts {
			st.Addons = append(st.Addons, id)
		}
	}
	return st
}

func (s *Service) IsContactPassActive(user *models.User) bool {
	return user != nil && IsContactPassActive(user.Entitlements, s.now())
}

func (s *Service) DaysRemaining(user *models.User) int {
	if user == nil {
		return 0
	}
	return DaysRemaining(user.Entitlements, s.now())
}

func (s *Service) CanViewInterestedContacts(user *models.User, listingID string) bool {
	return user != nil && CanViewInterestedContacts(user.Entitlements, listingID)
}

// Checkout opens a pending payment for the product at the current price.
// With a gateway that needs client side confirmation the caller completes
// checkout and then calls Complete with the gateway's proof.
func (s *Service) Checkout(ctx context.Context, user *models.User, c Checkout) (*models.Payment, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	price := s.pricing.get()
	data := models.CreatePaymentData{UserID: user.ID, PaymentMethod: c.Method}

	switch c.Product {
	case ProductContactPass:
		data.Type = models.PaymentContactPass
		data.EntityType = models.EntityUser
		data.EntityID = user.ID
		data.Amount = float64(price.ContactPassPrice)
	case ProductListingFee:
		l, err := s.ownedListing(ctx, user, c.ListingID)
		if err != nil {
			return nil, err
		}
		switch l.Status {
		case models.ListingPendingPayment, models.ListingActive, models.ListingExpired:
		default:
			return nil, fmt.Errorf("%w: listing is %s", ErrNotPayable, l.Status)
		}
		data.Type = models.PaymentListingFee
		data.EntityType = models.EntityListing
		data.EntityID = l.ID
		data.Amount = float64(price.ListingPrice)
	case ProductViewContactsAddon:
		l, err := s.ownedListing(ctx, user, c.ListingID)
		if err != nil {
			return nil, err
		}
		if CanViewInterestedContacts(user.Entitlements, l.ID) {
			return nil, ErrAlreadyActive
		}
		data.Type = models.PaymentContactsAddon
		data.EntityType = models.EntityListing
		data.EntityID = l.ID
		data.Amount = float64(price.ViewContactsAddonPrice)
	default:
		return nil, fmt.Errorf("%w: unknown product %q", payments.ErrInvalidPayment, c.Product)
	}

	return s.payments.Create(ctx, data)
}

// Complete processes the payment and, once it is completed, grants what was
// bought. A declined payment is returned in the receipt without an error.
// Calling it again on a completed payment whose entitlement was never
// applied retries the grant without charging again.
func (s *Service) Complete(ctx context.Context, user *models.User, paymentID string, proof models.PaymentProof) (*Receipt, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != user.ID {
		return nil, ErrForbidden
	}

	if p.Status != models.PaymentCompleted || p.GrantedAt != nil {
		p, err = s.payments.Process(ctx, paymentID, proof)
		if err != nil {
			return nil, err
		}
	}
	receipt := &Receipt{Payment: p}
	if p.Status != models.PaymentCompleted {
		if p.Type == models.PaymentListingFee {
			if err := s.listings.MarkPaymentFailed(ctx, p.EntityID); err != nil {
				s.logger.Warn("Failed to flag listing payment failure", zap.String("listingID", p.EntityID), zap.Error(err))
			}
		}
		return receipt, nil
	}

	if err := s.settle(ctx, p, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// settle claims the grant on p, applies it and releases the claim if the
// entitlement could not be written.
func (s *Service) settle(ctx context.Context, p *models.Payment, receipt *Receipt) error {
	if err := s.payments.SetGranted(ctx, p, true); err != nil {
		return err
	}
	if err := s.grant(ctx, p, receipt); err != nil {
		s.logger.Error("Payment completed but entitlement not applied",
			zap.String("paymentID", p.ID),
			zap.String("type", string(p.Type)),
			zap.Error(err))
		if relErr := s.payments.SetGranted(ctx, p, false); relErr != nil {
			s.logger.Error("Failed to release grant claim",
				zap.String("paymentID", p.ID),
				zap.Error(relErr))
		}
		return err
	}
	return nil
}

// Purchase runs Checkout and Complete back to back. It suits gateways that
// settle without client interaction, such as the mock.
func (s *Service) Purchase(ctx context.Context, user *models.User, c Checkout) (*Receipt, error) {
	method := c.Method
	if method == "" {
		method = models.PaymentMethods[0]
		c.Method = method
	}
	p, err := s.Checkout(ctx, user, c)
	if err != nil {
		return nil, err
	}
	return s.Complete(ctx, user, p.ID, models.PaymentProof{Method: method})
}

func (s *Service) PurchaseContactPass(ctx context.Context, user *models.User, method string) (*Receipt, error) {
	return s.Purchase(ctx, user, Checkout{Product: ProductContactPass, Method: method})
}

func (s *Service) PayListingFee(ctx context.Context, user *models.User, listingID, method string) (*Receipt, error) {
	return s.Purchase(ctx, user, Checkout{Product: ProductListingFee, ListingID: listingID, Method: method})
}

func (s *Service) PurchaseViewContactsAddon(ctx context.Context, user *models.User, listingID, method string) (*Receipt, error) {
	return s.Purchase(ctx, user, Checkout{Product: ProductViewContactsAddon, ListingID: listingID, Method: method})
}

func (s *Service) grant(ctx context.Context, p *models.Payment, receipt *Receipt) error {
	price := s.pricing.get()
	now := s.now()

	switch p.Type {
	case models.PaymentContactPass:
		a, err := s.auth(ctx)
		if err != nil {
			return err
		}
		u, err := a.UpdateEntitlements(ctx, p.UserID, func(e *models.Entitlements) {
			until := extendFrom(e.ContactPassUntil, now, price.ContactPassDuration)
			e.ContactPassUntil = &until
		})
		if err != nil {
			return err
		}
		receipt.User = u
		s.logger.Info("Contact pass granted", zap.String("userID", u.ID), zap.Timep("until", u.Entitlements.ContactPassUntil))

	case models.PaymentListingFee:
		l, err := s.listings.Get(ctx, p.EntityID)
		if err != nil {
			return err
		}
		var current *time.Time
		if l.Status == models.ListingActive {
			current = l.ExpiresAt
		}
		l, err = s.listings.Activate(ctx, l.ID, extendFrom(current, now, price.ListingDuration))
		if err != nil {
			return err
		}
		receipt.Listing = l
		s.logger.Info("Listing activated", zap.String("listingID", l.ID), zap.Timep("until", l.ExpiresAt))

	case models.PaymentContactsAddon:
		a, err := s.auth(ctx)
		if err != nil {
			return err
		}
		u, err := a.UpdateEntitlements(ctx, p.UserID, func(e *models.Entitlements) {
			if e.Addons == nil {
				e.Addons = make(map[string]models.Addon)
			}
			e.Addons[p.EntityID] = models.Addon{CanViewInterestedContacts: true}
		})
		if err != nil {
			return err
		}
		receipt.User = u
		s.logger.Info("Contacts add-on granted", zap.String("userID", u.ID), zap.String("listingID", p.EntityID))

	default:
		return fmt.Errorf("%w: unknown payment type %q", payments.ErrInvalidPayment, p.Type)
	}
	return nil
}

func (s *Service) ownedListing(ctx context.Context, user *models.User, id string) (*models.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: listingId is required", payments.ErrInvalidPayment)
	}
	l, err := s.listings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != user.ID {
		return nil, ErrForbidden
	}
	return l, nil
}
