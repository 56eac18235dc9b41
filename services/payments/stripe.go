package payments

import (
	"context"
	"fmt"
	"strings"

	"meramarket/config"
	"meramarket/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeGateway charges through PaymentIntents. The client confirms the
// intent with the returned client secret; Confirm then checks its status.
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("stripe: missing %v", missing)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{api: api, logger: logger}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateOrder(ctx context.Context, p *models.Payment) error {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(p.Amount)),
		Currency: stripe.String(strings.ToLower(p.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("paymentId", p.ID)
	params.AddMetadata("type", string(p.Type))
	params.AddMetadata("entityId", p.EntityID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return err
	}
	p.GatewayOrderID = pi.ID
	p.ClientSecret = pi.ClientSecret
	g.logger.Debug("Stripe payment intent created", zap.String("paymentID", p.ID), zap.String("intentID", pi.ID))
	return nil
}

func (g *StripeGateway) Confirm(ctx context.Context, p *models.Payment, _ models.PaymentProof) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(p.GatewayOrderID, params)
	if err != nil {
		return "", err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", fmt.Errorf("%w: payment intent is %s", ErrDeclined, pi.Status)
	}
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		return pi.LatestCharge.ID, nil
	}
	return pi.ID, nil
}

func (g *StripeGateway) Refund(ctx context.Context, p *models.Payment, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.GatewayOrderID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.AddMetadata("reason", reason)
	_, err := g.api.Refunds.New(params)
	return err
}
