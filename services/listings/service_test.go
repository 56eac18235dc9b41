package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meramarket/models"
	"meramarket/services/geo"
	"meramarket/services/integrations"
)

var (
	seller = &models.User{ID: "seller-1", Name: "Asha", Phone: "+919800000001", Role: models.RoleUser}
	other  = &models.User{ID: "other-1", Name: "Vikram", Role: models.RoleUser}
	admin  = &models.User{ID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
)

func newTestService(t *testing.T, store Store, g geo.Service) *Service {
	t.Helper()
	reg, err := integrations.New(integrations.Catalog{
		integrations.CategoryData: {
			{Name: integrations.ProviderMock, New: func(context.Context) (any, error) { return store, nil }},
		},
		integrations.CategoryGeo: {
			{Name: integrations.ProviderMock, New: func(context.Context) (any, error) { return g, nil }},
		},
	}, nil)
	require.NoError(t, err)
	return NewService(reg, zap.NewNop())
}

func phoneInput() models.ListingInput {
	return models.ListingInput{
		Title:       "Samsung Galaxy S21",
		Description: "Lightly used, with charger.",
		Price:       32000,
		Category:    "electronics",
		Subcategory: "mobile-phones",
		Location:    models.Location{Lat: 28.6139, Lng: 77.2090, City: "New Delhi"},
	}
}

func TestCreateListing(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, phoneInput())
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, models.ListingDraft, l.Status)
	assert.Equal(t, models.PaymentStatusPending, l.PaymentStatus)
	assert.Equal(t, models.ModerationPending, l.Moderation)
	assert.Equal(t, seller.Phone, l.SellerPhone)
	assert.Len(t, l.Location.Geohash, 9)

	got, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Title, got.Title)
}

func TestCreateListingRejectsContactInfo(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())

	in := phoneInput()
	in.Description = "Call me on 9876543210 or mail asha@example.com"
	_, err := svc.Create(context.Background(), seller, in)

	require.ErrorIs(t, err, ErrContactInfo)
	var cie *ContactInfoError
	require.True(t, errors.As(err, &cie))
	assert.Equal(t, "description", cie.Field)
	assert.Equal(t, []string{
		"Email addresses are not allowed",
		"Phone numbers are not allowed",
		"Long number sequences are not allowed",
	}, cie.Violations)
}

func TestCreateListingValidation(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()

	cases := map[string]func(*models.ListingInput){
		"empty title":      func(in *models.ListingInput) { in.Title = "  " },
		"negative price":   func(in *models.ListingInput) { in.Price = -1 },
		"unknown category": func(in *models.ListingInput) { in.Category = "pets" },
		"wrong subcategory": func(in *models.ListingInput) {
			in.Subcategory = "motorcycles"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := phoneInput()
			mutate(&in)
			_, err := svc.Create(ctx, seller, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Create(ctx, nil, phoneInput())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	store := NewEmptyMockStore()
	svc := newTestService(t, store, geo.NewMockService())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := svc.Create(ctx, seller, phoneInput())
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, models.ListingFilters{}, models.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	last, err := svc.List(ctx, models.ListingFilters{}, models.PageRequest{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasMore)
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t, NewMockStore(), geo.NewMockService())
	ctx := context.Background()

	page, err := svc.List(ctx, models.ListingFilters{Category: "vehicles"}, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "listing-2", page.Items[0].ID)

	page, err = svc.List(ctx, models.ListingFilters{MaxPrice: 100000}, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "listing-1", page.Items[0].ID)

	page, err = svc.List(ctx, models.ListingFilters{Query: "ROYAL"}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestListNearby(t *testing.T) {
	// Connaught Place to Rohini is about 14.6 km.
	near := &models.GeoFilter{Lat: 28.6139, Lng: 77.2090, RadiusKm: 5}
	wide := &models.GeoFilter{Lat: 28.6139, Lng: 77.2090, RadiusKm: 20}

	for name, g := range map[string]geo.Service{
		"mock":    geo.NewMockService(),
		"geofire": geo.NewGeoFireService("", zap.NewNop()),
	} {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(t, NewMockStore(), g)
			ctx := context.Background()

			page, err := svc.List(ctx, models.ListingFilters{Near: near}, models.PageRequest{})
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, "listing-1", page.Items[0].ID)

			page, err = svc.List(ctx, models.ListingFilters{Near: wide}, models.PageRequest{})
			require.NoError(t, err)
			assert.Equal(t, 2, page.Total)
		})
	}
}

func TestViewCountsViews(t *testing.T) {
	svc := newTestService(t, NewMockStore(), geo.NewMockService())
	ctx := context.Background()

	before, err := svc.Get(ctx, "listing-1")
	require.NoError(t, err)
	after, err := svc.View(ctx, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, before.Views+1, after.Views)

	_, err = svc.View(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, phoneInput())
	require.NoError(t, err)

	price := 30000.0
	_, err = svc.Update(ctx, other, l.ID, models.ListingUpdate{Price: &price})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, seller, l.ID, models.ListingUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, price, updated.Price)

	bad := "WhatsApp wa.me/919876543210"
	_, err = svc.Update(ctx, seller, l.ID, models.ListingUpdate{Description: &bad})
	assert.ErrorIs(t, err, ErrContactInfo)

	assert.ErrorIs(t, svc.Delete(ctx, other, l.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, l.ID))
	_, err = svc.Get(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingLifecycle(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, phoneInput())
	require.NoError(t, err)

	_, err = svc.MarkSold(ctx, seller, l.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Publish(ctx, other, l.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	l, err = svc.Publish(ctx, seller, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingPendingPayment, l.Status)

	_, err = svc.Publish(ctx, seller, l.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, svc.MarkPaymentFailed(ctx, l.ID))
	l, err = svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, l.PaymentStatus)

	until := time.Now().Add(60 * 24 * time.Hour)
	l, err = svc.Activate(ctx, l.ID, until)
	require.NoError(t, err)
	assert.Equal(t, models.ListingActive, l.Status)
	assert.Equal(t, models.PaymentStatusPaid, l.PaymentStatus)
	require.NotNil(t, l.ExpiresAt)
	assert.True(t, l.ExpiresAt.Equal(until))

	l, err = svc.MarkSold(ctx, seller, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, l.Status)

	_, err = svc.Activate(ctx, l.ID, until)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestModerateListing(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, phoneInput())
	require.NoError(t, err)

	l, err = svc.Moderate(ctx, l.ID, models.ModerationDecision{Action: models.ActionReject, Reason: "blurry photos"})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationRejected, l.Moderation)
	assert.Equal(t, models.ListingRejected, l.Status)
	assert.Equal(t, "blurry photos", l.ModerationReason)

	// Republishing a rejected listing sends it back to the queue.
	l, err = svc.Publish(ctx, seller, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationPending, l.Moderation)
	assert.Empty(t, l.ModerationReason)

	l, err = svc.Moderate(ctx, l.ID, models.ModerationDecision{Action: models.ActionApprove})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationApproved, l.Moderation)

	_, err = svc.Moderate(ctx, l.ID, models.ModerationDecision{Action: "ban"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExpireListings(t *testing.T) {
	svc := newTestService(t, NewMockStore(), geo.NewMockService())
	ctx := context.Background()

	n, err := svc.ExpireListings(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = func() time.Time { return time.Now().Add(40 * 24 * time.Hour) }
	n, err = svc.ExpireListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, err := svc.Get(ctx, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, models.ListingExpired, l.Status)

	l, err = svc.Publish(ctx, &models.User{ID: "user-1"}, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, models.ListingPendingPayment, l.Status)
}

func TestRequirementLifecycle(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	r, err := svc.CreateRequirement(ctx, seller, models.RequirementInput{
		Title:       "Need a used bicycle",
		Description: "Any geared cycle in working condition.",
		Category:    "vehicles",
		Subcategory: "bicycles",
		Budget:      models.Budget{Min: 3000, Max: 6000},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequirementActive, r.Status)
	assert.Equal(t, models.ModerationPending, r.Moderation)
	assert.Equal(t, now.Add(RequirementLifetime), r.ExpiresAt)

	page, err := svc.ListRequirements(ctx, models.RequirementFilters{MinBudget: 5000}, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	page, err = svc.ListRequirements(ctx, models.RequirementFilters{MaxBudget: 2000}, models.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	title := "Need a used bicycle urgently"
	_, err = svc.UpdateRequirement(ctx, other, r.ID, models.RequirementUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
	r, err = svc.UpdateRequirement(ctx, seller, r.ID, models.RequirementUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, r.Title)

	r, err = svc.CloseRequirement(ctx, seller, r.ID, models.RequirementFulfilled)
	require.NoError(t, err)
	assert.Equal(t, models.RequirementFulfilled, r.Status)
	_, err = svc.CloseRequirement(ctx, seller, r.ID, models.RequirementCancelled)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, svc.DeleteRequirement(ctx, seller, r.ID))
	_, err = svc.GetRequirement(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRequirementRejectsContactInfo(t *testing.T) {
	svc := newTestService(t, NewEmptyMockStore(), geo.NewMockService())

	_, err := svc.CreateRequirement(context.Background(), seller, models.RequirementInput{
		Title:       "Sofa wanted, ping 9876543210",
		Description: "three seater",
		Category:    "home-garden",
	})
	assert.ErrorIs(t, err, ErrContactInfo)

	_, err = svc.CreateRequirement(context.Background(), seller, models.RequirementInput{
		Title:    "Sofa wanted",
		Category: "home-garden",
		Budget:   models.Budget{Min: 5000, Max: 1000},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestModerateAndExpireRequirements(t *testing.T) {
	svc := newTestService(t, NewMockStore(), geo.NewMockService())
	ctx := context.Background()

	r, err := svc.ModerateRequirement(ctx, "requirement-1", models.ModerationDecision{Action: models.ActionReject, Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, models.RequirementCancelled, r.Status)
	assert.Equal(t, models.ModerationRejected, r.Moderation)

	r, err = svc.CreateRequirement(ctx, seller, models.RequirementInput{Title: "Wanted: DSLR", Category: "electronics", Subcategory: "cameras"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(RequirementLifetime + time.Hour) }
	n, err := svc.ExpireRequirements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.GetRequirement(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequirementExpired, got.Status)
}

func TestNearbyRequirements(t *testing.T) {
	svc := newTestService(t, NewMockStore(), geo.NewGeoFireService("", zap.NewNop()))

	page, err := svc.ListRequirements(context.Background(), models.RequirementFilters{
		Near: &models.GeoFilter{Lat: 28.7041, Lng: 77.1025, RadiusKm: 3},
	}, models.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
