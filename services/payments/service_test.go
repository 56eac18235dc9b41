package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meramarket/models"
	"meramarket/services/integrations"
)

// decliningGateway rejects every proof whose method is "wallet" and times out
// on "netbanking".
type decliningGateway struct {
	refunds int
}

var errGatewayTimeout = errors.New("gateway timeout")

func (g *decliningGateway) Name() string { return "decliner" }

func (g *decliningGateway) CreateOrder(_ context.Context, p *models.Payment) error {
	p.GatewayOrderID = "order_" + p.ID
	return nil
}

func (g *decliningGateway) Confirm(_ context.Context, _ *models.Payment, proof models.PaymentProof) (string, error) {
	switch proof.Method {
	case "wallet":
		return "", fmt.Errorf("%w: wallet not accepted", ErrDeclined)
	case "netbanking":
		return "", errGatewayTimeout
	}
	return "txn_decliner", nil
}

func (g *decliningGateway) Refund(context.Context, *models.Payment, string) error {
	g.refunds++
	return nil
}

func newTestService(t *testing.T) (*Service, *integrations.Registry, *decliningGateway) {
	t.Helper()
	decliner := &decliningGateway{}
	reg, err := integrations.New(integrations.Catalog{
		integrations.CategoryPayments: {
			{Name: integrations.ProviderMock, New: func(context.Context) (any, error) { return NewMockGateway(), nil }},
			{Name: "decliner", New: func(context.Context) (any, error) { return decliner, nil }},
		},
	}, nil)
	require.NoError(t, err)
	return NewService(reg, NewMemoryLedger(), zap.NewNop()), reg, decliner
}

func listingFee(user string) models.CreatePaymentData {
	return models.CreatePaymentData{
		Amount:     50,
		Type:       models.PaymentListingFee,
		EntityID:   "listing-1",
		EntityType: models.EntityListing,
		UserID:     user,
	}
}

func TestCreateAndProcessWithMock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, "mock", p.Provider)
	assert.Equal(t, Currency, p.Currency)
	assert.NotEmpty(t, p.GatewayOrderID)

	done, err := svc.Process(ctx, p.ID, models.PaymentProof{Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)
	assert.Equal(t, "upi", done.PaymentMethod)
	assert.NotEmpty(t, done.TransactionID)
	require.NotNil(t, done.CompletedAt)

	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "upi"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(*models.CreatePaymentData){
		"zero amount":    func(d *models.CreatePaymentData) { d.Amount = 0 },
		"negative":       func(d *models.CreatePaymentData) { d.Amount = -5 },
		"no user":        func(d *models.CreatePaymentData) { d.UserID = "" },
		"no entity":      func(d *models.CreatePaymentData) { d.EntityID = "" },
		"bad type":       func(d *models.CreatePaymentData) { d.Type = "donation" },
		"bad entityType": func(d *models.CreatePaymentData) { d.EntityType = "shop" },
		"bad method":     func(d *models.CreatePaymentData) { d.PaymentMethod = "cheque" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			data := listingFee("user-1")
			mutate(&data)
			_, err := svc.Create(ctx, data)
			assert.ErrorIs(t, err, ErrInvalidPayment)
		})
	}
}

func TestProcessRejectsUnknownMethod(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "barter"})
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = svc.Process(ctx, "missing", models.PaymentProof{Method: "card"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclinedPaymentIsRecordedAsFailed(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()
	_, err := reg.SetProvider(ctx, integrations.CategoryPayments, "decliner")
	require.NoError(t, err)

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	assert.Equal(t, "decliner", p.Provider)

	failed, err := svc.Process(ctx, p.ID, models.PaymentProof{Method: "wallet"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.Status)
	assert.Contains(t, failed.FailureReason, "wallet not accepted")

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)
}

func TestGatewayErrorReleasesPayment(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()
	_, err := reg.SetProvider(ctx, integrations.CategoryPayments, "decliner")
	require.NoError(t, err)

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)

	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "netbanking"})
	assert.ErrorIs(t, err, errGatewayTimeout)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.Status, "a failed confirm can be retried")

	done, err := svc.Process(ctx, p.ID, models.PaymentProof{Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, done.Status)
}

func TestProcessingPaymentRejectsSecondProcess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	p.Status = models.PaymentProcessing
	require.NoError(t, svc.Ledger().Save(ctx, p))

	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "card"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSetGrantedIsClaimedOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetGranted(ctx, p, true), ErrInvalidState, "pending payments cannot be granted")

	done, err := svc.Process(ctx, p.ID, models.PaymentProof{Method: "card"})
	require.NoError(t, err)
	stale, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetGranted(ctx, done, true))
	require.NotNil(t, done.GrantedAt)
	assert.ErrorIs(t, svc.SetGranted(ctx, stale, true), ErrInvalidState)

	require.NoError(t, svc.SetGranted(ctx, done, false))
	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.GrantedAt)
}

func TestMemoryLedgerRejectsStaleSave(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := &models.Payment{ID: "pay-1", Status: models.PaymentPending}
	require.NoError(t, ledger.Insert(ctx, p))
	assert.Equal(t, int64(1), p.Version)

	a, err := ledger.Get(ctx, "pay-1")
	require.NoError(t, err)
	b, err := ledger.Get(ctx, "pay-1")
	require.NoError(t, err)

	a.Status = models.PaymentProcessing
	require.NoError(t, ledger.Save(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	b.Status = models.PaymentProcessing
	assert.ErrorIs(t, ledger.Save(ctx, b), ErrConflict)

	assert.ErrorIs(t, ledger.Save(ctx, &models.Payment{ID: "missing"}), ErrNotFound)
}

func TestProcessAfterProviderSwitchIsMismatch(t *testing.T) {
	svc, reg, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)

	_, err = reg.SetProvider(ctx, integrations.CategoryPayments, "decliner")
	require.NoError(t, err)

	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "card"})
	assert.ErrorIs(t, err, ErrGatewayMismatch)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, stored.Status, "history survives the switch untouched")
}

func TestRefund(t *testing.T) {
	svc, reg, decliner := newTestService(t)
	ctx := context.Background()
	_, err := reg.SetProvider(ctx, integrations.CategoryPayments, "decliner")
	require.NoError(t, err)

	p, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)

	_, err = svc.Refund(ctx, p.ID, "duplicate")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Process(ctx, p.ID, models.PaymentProof{Method: "card"})
	require.NoError(t, err)

	refunded, err := svc.Refund(ctx, p.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, refunded.Status)
	assert.Equal(t, "duplicate", refunded.RefundReason)
	require.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, 1, decliner.refunds)
}

func TestQueryFiltersAndRevenue(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	a, err := svc.Create(ctx, listingFee("user-1"))
	require.NoError(t, err)
	_, err = svc.Process(ctx, a.ID, models.PaymentProof{Method: "card"})
	require.NoError(t, err)

	pass := models.CreatePaymentData{Amount: 20, Type: models.PaymentContactPass, EntityID: "user-2", EntityType: models.EntityUser, UserID: "user-2"}
	b, err := svc.Create(ctx, pass)
	require.NoError(t, err)

	page, err := svc.Query(ctx, models.PaymentFilters{}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, b.ID, page.Items[0].ID, "newest first")

	page, err = svc.Query(ctx, models.PaymentFilters{UserID: "user-1"}, models.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, a.ID, page.Items[0].ID)

	page, err = svc.Query(ctx, models.PaymentFilters{Status: models.PaymentPending}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	page, err = svc.Query(ctx, models.PaymentFilters{DateFrom: &day, DateTo: &day}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "dateTo covers the whole day")

	revenue, err := svc.Ledger().Revenue(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, revenue, 0.001)
}

func TestMethods(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.Equal(t, []string{"card", "upi", "netbanking", "wallet"}, svc.Methods())
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5000), toMinorUnits(50))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
}
