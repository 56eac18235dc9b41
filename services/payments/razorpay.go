package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"meramarket/config"
	"meramarket/models"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"
)

// RazorpayGateway charges through Razorpay orders. The client completes
// checkout and sends back razorpay_payment_id and razorpay_signature.
type RazorpayGateway struct {
	client *razorpay.Client
	secret string
	logger *zap.Logger
}

func NewRazorpayGateway(cfg config.RazorpayConfig, logger *zap.Logger) (*RazorpayGateway, error) {
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		return nil, fmt.Errorf("razorpay: missing %v", missing)
	}
	return &RazorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		secret: cfg.KeySecret,
		logger: logger,
	}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) CreateOrder(_ context.Context, p *models.Payment) error {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   toMinorUnits(p.Amount),
		"currency": p.Currency,
		"receipt":  p.ID,
		"notes": map[string]interface{}{
			"type":     string(p.Type),
			"entityId": p.EntityID,
			"userId":   p.UserID,
		},
	}, nil)
	if err != nil {
		return err
	}
	id, _ := body["id"].(string)
	if id == "" {
		return errors.New("razorpay: order response has no id")
	}
	p.GatewayOrderID = id
	g.logger.Debug("Razorpay order created", zap.String("paymentID", p.ID), zap.String("orderID", id))
	return nil
}

func (g *RazorpayGateway) Confirm(_ context.Context, p *models.Payment, proof models.PaymentProof) (string, error) {
	if proof.GatewayPaymentID == "" || proof.Signature == "" {
		return "", fmt.Errorf("%w: razorpay payment id and signature are required", ErrDeclined)
	}
	if !VerifyRazorpaySignature(p.GatewayOrderID, proof.GatewayPaymentID, proof.Signature, g.secret) {
		return "", fmt.Errorf("%w: signature mismatch", ErrDeclined)
	}
	return proof.GatewayPaymentID, nil
}

func (g *RazorpayGateway) Refund(_ context.Context, p *models.Payment, reason string) error {
	_, err := g.client.Payment.Refund(p.GatewayTransactionID, int(toMinorUnits(p.Amount)), map[string]interface{}{
		"notes": map[string]interface{}{"reason": reason, "paymentId": p.ID},
	}, nil)
	return err
}

// VerifyRazorpaySignature checks the checkout signature, the hex encoded
// HMAC-SHA256 of "order_id|payment_id" keyed with the account secret.
func VerifyRazorpaySignature(orderID, paymentID, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
