package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"meramarket/config"
	"meramarket/models"
	"meramarket/services/auth"
	"meramarket/services/geo"
	"meramarket/services/integrations"
	"meramarket/services/listings"
	"meramarket/services/payments"
	"meramarket/services/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SelectionStore:  "memory",
		InterestStore:   "memory",
		DatabaseName:    "meramarket",
		LocalStorageDir: t.TempDir(),
		PublicBaseURL:   "http://localhost:8080/",
		JWTSecret:       "test-secret",
		GeoIPEndpoint:   "https://ipapi.co/%s/json/",
	}
}

func TestBuildResolvesMockProviders(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Close(ctx)

	_, err = integrations.Resolve[auth.Service](ctx, svc.Registry, integrations.CategoryAuth)
	require.NoError(t, err)
	_, err = integrations.Resolve[listings.Store](ctx, svc.Registry, integrations.CategoryData)
	require.NoError(t, err)
	_, err = integrations.Resolve[payments.Gateway](ctx, svc.Registry, integrations.CategoryPayments)
	require.NoError(t, err)
	_, err = integrations.Resolve[storage.Service](ctx, svc.Registry, integrations.CategoryStorage)
	require.NoError(t, err)
	_, err = integrations.Resolve[geo.Service](ctx, svc.Registry, integrations.CategoryGeo)
	require.NoError(t, err)

	page, err := svc.Listings.List(ctx, models.ListingFilters{Status: models.ListingActive}, models.PageRequest{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.NotEmpty(t, page.Items)
}

func TestUnconfiguredProvidersStayOnMock(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Close(ctx)

	cases := []struct {
		category integrations.Category
		provider string
		missing  string
	}{
		{integrations.CategoryAuth, "firebase", "FB_API_KEY"},
		{integrations.CategoryData, "mongo", "DATABASE_URL"},
		{integrations.CategoryData, "firestore", "FB_PROJECT_ID"},
		{integrations.CategoryPayments, "razorpay", "RAZORPAY_KEY_ID"},
		{integrations.CategoryPayments, "stripe", "STRIPE_KEY"},
		{integrations.CategoryStorage, "cloudinary", "CLOUDINARY_CLOUD_NAME"},
		{integrations.CategoryStorage, "firebase", "FB_STORAGE_BUCKET"},
	}
	for _, tc := range cases {
		t.Run(string(tc.category)+"/"+tc.provider, func(t *testing.T) {
			sel, err := svc.Registry.SetProvider(ctx, tc.category, tc.provider)
			require.NoError(t, err)
			assert.Equal(t, integrations.ProviderMock, sel.Active)
			assert.Contains(t, sel.MissingKeys, tc.missing)
			assert.NotEmpty(t, sel.Warning)
		})
	}
}

func TestGeoFireNeedsNoKeys(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer svc.Close(ctx)

	sel, err := svc.Registry.SetProvider(ctx, integrations.CategoryGeo, "geofire")
	require.NoError(t, err)
	assert.Equal(t, "geofire", sel.Active)

	g, err := integrations.Resolve[geo.Service](ctx, svc.Registry, integrations.CategoryGeo)
	require.NoError(t, err)
	assert.IsType(t, &geo.GeoFireService{}, g)
}

func TestMockModePinsEveryCategory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.UseMocks = true
	cfg.StripeKey = "sk_test_123"

	svc, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close(ctx)

	sel, err := svc.Registry.SetProvider(ctx, integrations.CategoryPayments, "stripe")
	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, sel.Active)
	assert.True(t, svc.Registry.MockOnly())
}

func TestUnknownStoresAreRejected(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t)
	cfg.SelectionStore = "etcd"
	_, err := Build(ctx, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "SELECTION_STORE")

	cfg = testConfig(t)
	cfg.InterestStore = "kafka"
	_, err = Build(ctx, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "INTEREST_STORE")
}

func TestJWTSecretGeneratedWhenUnset(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = ""
	deps := NewDeps(cfg, zap.NewNop())

	first, err := deps.JWTSecret()
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := deps.JWTSecret()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUploadsURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/uploads", UploadsURL(testConfig(t)))
}

func TestMockAdminNotSeededInProductionWithoutPassword(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Env = "production"
	core, logs := observer.New(zapcore.WarnLevel)

	svc, err := Build(ctx, cfg, zap.New(core))
	require.NoError(t, err)
	defer svc.Close(ctx)

	a, err := integrations.Resolve[auth.Service](ctx, svc.Registry, integrations.CategoryAuth)
	require.NoError(t, err)
	_, err = a.Login(ctx, models.Credentials{Email: auth.MockAdminEmail, Password: auth.MockAdminPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, 1, logs.FilterMessageSnippet("MOCK_ADMIN_PASSWORD").Len())
}

func TestMockAdminPasswordFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Env = "production"
	cfg.MockAdminPassword = "s3cret-admin"

	svc, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close(ctx)

	a, err := integrations.Resolve[auth.Service](ctx, svc.Registry, integrations.CategoryAuth)
	require.NoError(t, err)
	_, err = a.Login(ctx, models.Credentials{Email: auth.MockAdminEmail, Password: auth.MockAdminPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	res, err := a.Login(ctx, models.Credentials{Email: auth.MockAdminEmail, Password: "s3cret-admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
}

func TestMockAdminDevelopmentDefault(t *testing.T) {
	assert.Equal(t, auth.MockAdminPassword, mockAdminPassword(testConfig(t), zap.NewNop()))
}
