package billing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/geo"
	"meramarket/services/integrations"
	"meramarket/services/listings"
	"meramarket/services/payments"
)

type fixture struct {
	billing  *Service
	listings *listings.Service
	auth     *auth.MockService
	user     *models.User
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil, payments.NewMockGateway())
}

// newFixtureWith lets a test wrap the auth provider and swap the gateway.
func newFixtureWith(t *testing.T, wrapAuth func(*auth.MockService) auth.Service, gw payments.Gateway) *fixture {
	t.Helper()
	authSvc, err := auth.NewMockService([]byte("test-secret"), zap.NewNop())
	require.NoError(t, err)
	store := listings.NewEmptyMockStore()
	g := geo.NewMockService()

	var authProvider auth.Service = authSvc
	if wrapAuth != nil {
		authProvider = wrapAuth(authSvc)
	}
	mock := func(v any) []integrations.Descriptor {
		return []integrations.Descriptor{{Name: integrations.ProviderMock, New: func(context.Context) (any, error) { return v, nil }}}
	}
	reg, err := integrations.New(integrations.Catalog{
		integrations.CategoryAuth:     mock(authProvider),
		integrations.CategoryData:     mock(store),
		integrations.CategoryGeo:      mock(g),
		integrations.CategoryPayments: mock(gw),
	}, nil)
	require.NoError(t, err)

	res, err := authSvc.Signup(context.Background(), models.SignupData{
		Email: "asha@example.com", Password: "secret1", Name: "Asha", Phone: "+919800000001",
	})
	require.NoError(t, err)

	list := listings.NewService(reg, zap.NewNop())
	pay := payments.NewService(reg, payments.NewMemoryLedger(), zap.NewNop())
	return &fixture{
		billing:  NewService(reg, pay, list, zap.NewNop()),
		listings: list,
		auth:     authSvc,
		user:     res.User,
	}
}

func (f *fixture) publishedListing(t *testing.T) *models.Listing {
	t.Helper()
	ctx := context.Background()
	l, err := f.listings.Create(ctx, f.user, models.ListingInput{
		Title:       "Wooden study table",
		Description: "Solid sheesham wood, barely used.",
		Price:       4500,
		Category:    "home-garden",
		Subcategory: "furniture",
		Location:    models.Location{Lat: 28.61, Lng: 77.21, City: "New Delhi"},
	})
	require.NoError(t, err)
	l, err = f.listings.Publish(ctx, f.user, l.ID)
	require.NoError(t, err)
	return l
}

func TestPurchaseContactPass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	f.billing.now = func() time.Time { return now }

	r, err := f.billing.PurchaseContactPass(ctx, f.user, "upi")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, r.Payment.Status)
	assert.Equal(t, float64(DefaultContactPassPrice), r.Payment.Amount)
	require.NotNil(t, r.User.Entitlements.ContactPassUntil)
	assert.Equal(t, now.AddDate(0, 0, 15), *r.User.Entitlements.ContactPassUntil)

	assert.True(t, f.billing.IsContactPassActive(r.User))
	assert.Equal(t, 15, f.billing.DaysRemaining(r.User))

	// A second pass extends the active one.
	r, err = f.billing.PurchaseContactPass(ctx, r.User, "card")
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), *r.User.Entitlements.ContactPassUntil)

	stored, err := f.auth.GetUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, r.User.Entitlements.ContactPassUntil.Unix(), stored.Entitlements.ContactPassUntil.Unix())
}

func TestPayListingFeeActivatesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.publishedListing(t)

	r, err := f.billing.PayListingFee(ctx, f.user, l.ID, "card")
	require.NoError(t, err)
	require.NotNil(t, r.Listing)
	assert.Equal(t, models.ListingActive, r.Listing.Status)
	assert.Equal(t, models.PaymentStatusPaid, r.Listing.PaymentStatus)
	require.NotNil(t, r.Listing.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 60), *r.Listing.ExpiresAt, time.Minute)
}

func TestListingFeeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.listings.Create(ctx, f.user, models.ListingInput{
		Title: "Old cycle", Description: "Needs new tyres.", Price: 900,
		Category: "vehicles", Subcategory: "bicycles",
	})
	require.NoError(t, err)
	_, err = f.billing.Checkout(ctx, f.user, Checkout{Product: ProductListingFee, ListingID: draft.ID})
	assert.ErrorIs(t, err, ErrNotPayable)

	l := f.publishedListing(t)
	stranger := &models.User{ID: "someone-else", Role: models.RoleUser}
	_, err = f.billing.Checkout(ctx, stranger, Checkout{Product: ProductListingFee, ListingID: l.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.billing.Checkout(ctx, f.user, Checkout{Product: ProductListingFee})
	assert.ErrorIs(t, err, payments.ErrInvalidPayment)
}

func TestViewContactsAddon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.publishedListing(t)

	assert.False(t, f.billing.CanViewInterestedContacts(f.user, l.ID))

	r, err := f.billing.PurchaseViewContactsAddon(ctx, f.user, l.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "card", r.Payment.PaymentMethod)
	assert.True(t, f.billing.CanViewInterestedContacts(r.User, l.ID))
	assert.False(t, f.billing.CanViewInterestedContacts(r.User, "other-listing"))
	assert.Equal(t, []string{l.ID}, f.billing.Status(r.User).Addons)

	_, err = f.billing.PurchaseViewContactsAddon(ctx, r.User, l.ID, "upi")
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestCompleteRequiresPayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.billing.Checkout(ctx, f.user, Checkout{Product: ProductContactPass, Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)

	_, err = f.billing.Complete(ctx, &models.User{ID: "intruder"}, p.ID, models.PaymentProof{Method: "upi"})
	assert.ErrorIs(t, err, ErrForbidden)

	r, err := f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, r.Payment.Status)

	_, err = f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"})
	assert.ErrorIs(t, err, payments.ErrInvalidState)
}

// slowGateway holds every confirmation long enough for callers to overlap.
type slowGateway struct {
	*payments.MockGateway
	confirms atomic.Int32
}

func (g *slowGateway) Confirm(ctx context.Context, p *models.Payment, proof models.PaymentProof) (string, error) {
	g.confirms.Add(1)
	time.Sleep(20 * time.Millisecond)
	return g.MockGateway.Confirm(ctx, p, proof)
}

func TestConcurrentCompleteGrantsOnce(t *testing.T) {
	gw := &slowGateway{MockGateway: payments.NewMockGateway()}
	f := newFixtureWith(t, nil, gw)
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	f.billing.now = func() time.Time { return now }

	p, err := f.billing.Checkout(ctx, f.user, Checkout{Product: ProductContactPass, Method: "upi"})
	require.NoError(t, err)

	const callers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		errs      = make(chan error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"}); err != nil {
				errs <- err
				return
			}
			successes.Add(1)
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(1), gw.confirms.Load(), "only one caller reaches the gateway")
	for err := range errs {
		assert.ErrorIs(t, err, payments.ErrInvalidState)
	}

	stored, err := f.auth.GetUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Entitlements.ContactPassUntil)
	assert.Equal(t, now.AddDate(0, 0, DefaultContactPassDuration), *stored.Entitlements.ContactPassUntil)
}

// flakyAuth fails the first entitlement write.
type flakyAuth struct {
	*auth.MockService
	calls atomic.Int32
}

var errEntitlementStore = errors.New("entitlement store unavailable")

func (a *flakyAuth) UpdateEntitlements(ctx context.Context, id string, fn func(*models.Entitlements)) (*models.User, error) {
	if a.calls.Add(1) == 1 {
		return nil, errEntitlementStore
	}
	return a.MockService.UpdateEntitlements(ctx, id, fn)
}

func TestCompleteRetriesFailedGrant(t *testing.T) {
	f := newFixtureWith(t, func(m *auth.MockService) auth.Service { return &flakyAuth{MockService: m} }, payments.NewMockGateway())
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	f.billing.now = func() time.Time { return now }

	p, err := f.billing.Checkout(ctx, f.user, Checkout{Product: ProductContactPass, Method: "upi"})
	require.NoError(t, err)

	_, err = f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"})
	assert.ErrorIs(t, err, errEntitlementStore)

	charged, err := f.billing.payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, charged.Status)
	assert.Nil(t, charged.GrantedAt, "failed grant releases its claim")

	r, err := f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, charged.TransactionID, r.Payment.TransactionID, "retry does not charge again")
	require.NotNil(t, r.Payment.GrantedAt)
	require.NotNil(t, r.User.Entitlements.ContactPassUntil)
	assert.Equal(t, now.AddDate(0, 0, DefaultContactPassDuration), *r.User.Entitlements.ContactPassUntil)

	_, err = f.billing.Complete(ctx, f.user, p.ID, models.PaymentProof{Method: "upi"})
	assert.ErrorIs(t, err, payments.ErrInvalidState)
}

func TestUpdatePricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := &models.User{ID: "admin-1", Email: auth.MockAdminEmail, Role: models.RoleAdmin}

	_, err := f.billing.UpdatePricing(ctx, f.user, models.PricingUpdate{})
	assert.ErrorIs(t, err, ErrForbidden)

	price := 25
	p, err := f.billing.UpdatePricing(ctx, admin, models.PricingUpdate{ContactPassPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 25, p.ContactPassPrice)
	assert.Equal(t, DefaultListingPrice, p.ListingPrice)

	audit := f.billing.PricingAudit()
	require.Len(t, audit, 1)
	assert.Equal(t, map[string]int{"contactPassPrice": 25}, audit[0].Changes)
	assert.Equal(t, map[string]int{"contactPassPrice": 20}, audit[0].PreviousValues)
	assert.Equal(t, auth.MockAdminEmail, audit[0].UpdatedBy)

	zero := 0
	_, err = f.billing.UpdatePricing(ctx, admin, models.PricingUpdate{ListingPrice: &zero})
	assert.ErrorIs(t, err, ErrInvalidPricing)

	r, err := f.billing.PurchaseContactPass(ctx, f.user, "upi")
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Payment.Amount)
}

func TestPricingAuditKeepsLastFifty(t *testing.T) {
	book := newPricingBook(DefaultPricing())
	for i := 1; i <= 60; i++ {
		price := 100 + i
		_, err := book.update(models.PricingUpdate{ListingPrice: &price}, "admin", time.Unix(int64(i), 0))
		require.NoError(t, err)
	}
	h := book.history()
	require.Len(t, h, auditLimit)
	assert.Equal(t, 160, h[0].Changes["listingPrice"])
	assert.Equal(t, 111, h[len(h)-1].Changes["listingPrice"])

	// A no-op update leaves no audit entry.
	same := 160
	_, err := book.update(models.PricingUpdate{ListingPrice: &same}, "admin", time.Unix(100, 0))
	require.NoError(t, err)
	assert.Len(t, book.history(), auditLimit)
	assert.Equal(t, 160, book.history()[0].Changes["listingPrice"])
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(d time.Duration) models.Entitlements {
		until := now.Add(d)
		return models.Entitlements{ContactPassUntil: &until}
	}

	assert.Equal(t, 0, DaysRemaining(models.Entitlements{}, now))
	assert.Equal(t, 0, DaysRemaining(at(-time.Hour), now))
	assert.Equal(t, 1, DaysRemaining(at(time.Hour), now))
	assert.Equal(t, 1, DaysRemaining(at(24*time.Hour), now))
	assert.Equal(t, 2, DaysRemaining(at(25*time.Hour), now))

	assert.True(t, IsContactPassActive(at(time.Second), now))
	assert.False(t, IsContactPassActive(at(0), now))
}
