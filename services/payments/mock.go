package payments

import (
	"context"

	"meramarket/models"

	"github.com/google/uuid"
)

// MockGateway accepts every payment.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (MockGateway) Name() string { return "mock" }

func (MockGateway) CreateOrder(_ context.Context, p *models.Payment) error {
	p.GatewayOrderID = "order_mock_" + shortID()
	return nil
}

func (MockGateway) Confirm(context.Context, *models.Payment, models.PaymentProof) (string, error) {
	return "txn_mock_" + shortID(), nil
}

func (MockGateway) Refund(context.Context, *models.Payment, string) error {
	return nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
