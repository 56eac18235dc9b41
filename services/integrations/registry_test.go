package integrations_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meramarket/config"
	"meramarket/services/integrations"
)

type fakeService struct {
	provider string
	closed   bool
}

func (f *fakeService) Close() error {
	f.closed = true
	return nil
}

// counter builds a Factory that returns a fresh *fakeService on every call.
func counter(name string, calls *int32) integrations.Factory {
	return func(context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return &fakeService{provider: name}, nil
	}
}

func fullFirebase() config.FirebaseConfig {
	return config.FirebaseConfig{
		APIKey:            "key",
		AuthDomain:        "meramarket.firebaseapp.com",
		ProjectID:         "meramarket",
		StorageBucket:     "meramarket.appspot.com",
		MessagingSenderID: "1234",
		AppID:             "1:1234:web:abcd",
	}
}

type testCatalog struct {
	mockCalls, firebaseCalls, razorpayCalls int32
	catalog                                 integrations.Catalog
}

func newTestCatalog(firebase config.FirebaseConfig, razorpay config.RazorpayConfig) *testCatalog {
	tc := &testCatalog{}
	tc.catalog = integrations.Catalog{
		integrations.CategoryAuth: {
			{Name: integrations.ProviderMock, Label: "Mock auth", New: counter("mock", &tc.mockCalls)},
			{Name: "firebase", Label: "Firebase Auth", Requires: firebase, New: counter("firebase", &tc.firebaseCalls)},
		},
		integrations.CategoryPayments: {
			{Name: integrations.ProviderMock, New: counter("mock", &tc.mockCalls)},
			{Name: "razorpay", Label: "Razorpay", Requires: razorpay, New: counter("razorpay", &tc.razorpayCalls)},
		},
	}
	return tc
}

func newRegistry(t *testing.T, catalog integrations.Catalog, store integrations.SelectionStore, opts ...integrations.Option) *integrations.Registry {
	t.Helper()
	reg, err := integrations.New(catalog, store, opts...)
	require.NoError(t, err)
	return reg
}

func TestRegistry_DefaultsToMock(t *testing.T) {
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	name, err := reg.Provider(context.Background(), integrations.CategoryAuth)

	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, name)
}

func TestRegistry_SetProviderFallsBackWhenKeysMissing(t *testing.T) {
	ctx := context.Background()
	store := integrations.NewMemoryStore()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, store)

	sel, err := reg.SetProvider(ctx, integrations.CategoryPayments, "razorpay")

	require.NoError(t, err)
	assert.Equal(t, "razorpay", sel.Requested)
	assert.Equal(t, integrations.ProviderMock, sel.Active)
	assert.NotEmpty(t, sel.Warning)
	assert.Equal(t, []string{"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET"}, sel.MissingKeys)

	name, err := reg.Provider(ctx, integrations.CategoryPayments)
	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, name)

	stored, _ := store.Get(ctx, integrations.CategoryPayments)
	assert.Equal(t, integrations.ProviderMock, stored, "the invalid name is never written")
	assert.Zero(t, tc.razorpayCalls)
}

func TestRegistry_OneMissingKeyDisqualifies(t *testing.T) {
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{KeyID: "rzp_test_1"})
	reg := newRegistry(t, tc.catalog, nil)

	sel, err := reg.SetProvider(context.Background(), integrations.CategoryPayments, "razorpay")

	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, sel.Active)
	assert.Equal(t, []string{"RAZORPAY_KEY_SECRET"}, sel.MissingKeys)
}

func TestRegistry_SwitchBuildsFreshInstance(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	before, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	again, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.Same(t, before, again, "instances are cached per category")

	sel, err := reg.SetProvider(ctx, integrations.CategoryAuth, "firebase")
	require.NoError(t, err)
	assert.Equal(t, "firebase", sel.Active)
	assert.Empty(t, sel.Warning)

	name, err := reg.Provider(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, "firebase", name)

	after, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, "firebase", after.(*fakeService).provider)
	assert.EqualValues(t, 1, tc.firebaseCalls)
}

func TestRegistry_SetProviderAlwaysInvalidates(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	first, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)

	_, err = reg.SetProvider(ctx, integrations.CategoryAuth, integrations.ProviderMock)
	require.NoError(t, err)

	second, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestRegistry_CorrectsStaleSelection(t *testing.T) {
	ctx := context.Background()
	store := integrations.NewMemoryStore()
	require.NoError(t, store.Set(ctx, integrations.CategoryPayments, "razorpay"))
	require.NoError(t, store.Set(ctx, integrations.CategoryAuth, "retired"))

	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, store)

	name, err := reg.Provider(ctx, integrations.CategoryPayments)
	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, name)
	stored, _ := store.Get(ctx, integrations.CategoryPayments)
	assert.Equal(t, integrations.ProviderMock, stored)

	inst, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, "mock", inst.(*fakeService).provider)
	stored, _ = store.Get(ctx, integrations.CategoryAuth)
	assert.Equal(t, integrations.ProviderMock, stored)
}

func TestRegistry_SelectionChangedUnderneath(t *testing.T) {
	ctx := context.Background()
	store := integrations.NewMemoryStore()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, store)

	mockInst, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)

	// Another replica sharing the store switched the category.
	require.NoError(t, store.Set(ctx, integrations.CategoryAuth, "firebase"))

	inst, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.NotSame(t, mockInst, inst)
	assert.Equal(t, "firebase", inst.(*fakeService).provider)
}

func TestRegistry_ConstructionErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("dial tcp: connection refused")
	var calls int32
	catalog := integrations.Catalog{
		integrations.CategoryData: {
			{Name: integrations.ProviderMock, New: counter("mock", &calls)},
			{Name: "mongo", Requires: config.NoKeys{}, New: func(context.Context) (any, error) {
				atomic.AddInt32(&calls, 1)
				return nil, boom
			}},
		},
	}
	reg := newRegistry(t, catalog, nil)

	_, err := reg.SetProvider(ctx, integrations.CategoryData, "mongo")
	require.NoError(t, err)

	_, err = reg.Instance(ctx, integrations.CategoryData)
	require.ErrorIs(t, err, boom)

	// Nothing was cached, so the factory runs again.
	_, err = reg.Instance(ctx, integrations.CategoryData)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, calls)
}

func TestRegistry_CallerErrors(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	_, err := reg.SetProvider(ctx, integrations.CategoryGeo, "mock")
	assert.ErrorIs(t, err, integrations.ErrUnknownCategory)

	_, err = reg.SetProvider(ctx, integrations.CategoryAuth, "okta")
	assert.ErrorIs(t, err, integrations.ErrUnknownProvider)

	_, err = reg.Instance(ctx, "chat")
	assert.ErrorIs(t, err, integrations.ErrUnknownCategory)

	_, err = integrations.ParseCategory("chat")
	assert.ErrorIs(t, err, integrations.ErrUnknownCategory)
}

func TestRegistry_MockOnly(t *testing.T) {
	ctx := context.Background()
	store := integrations.NewMemoryStore()
	require.NoError(t, store.Set(ctx, integrations.CategoryAuth, "firebase"))
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, store, integrations.WithMockOnly(true))

	name, err := reg.Provider(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, name)

	sel, err := reg.SetProvider(ctx, integrations.CategoryAuth, "firebase")
	require.NoError(t, err)
	assert.Equal(t, integrations.ProviderMock, sel.Active)
	assert.Contains(t, sel.Warning, "mock mode")
	assert.Zero(t, tc.firebaseCalls)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	svc, err := integrations.Resolve[*fakeService](ctx, reg, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.Equal(t, "mock", svc.provider)

	_, err = integrations.Resolve[error](ctx, reg, integrations.CategoryAuth)
	assert.ErrorIs(t, err, integrations.ErrWrongType)
}

func TestRegistry_Status(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	status, err := reg.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)

	assert.Equal(t, integrations.CategoryAuth, status[0].Category)
	assert.Equal(t, integrations.ProviderMock, status[0].Active)
	require.Len(t, status[0].Providers, 2)
	assert.True(t, status[0].Providers[0].Mock)
	assert.True(t, status[0].Providers[1].Configured)

	payments := status[1]
	assert.Equal(t, integrations.CategoryPayments, payments.Category)
	assert.False(t, payments.Providers[1].Configured)
	assert.Equal(t, []string{"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET"}, payments.Providers[1].MissingKeys)
}

func TestRegistry_Close(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	inst, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)

	require.NoError(t, reg.Close(ctx))
	assert.True(t, inst.(*fakeService).closed)

	next, err := reg.Instance(ctx, integrations.CategoryAuth)
	require.NoError(t, err)
	assert.NotSame(t, inst, next)
}

func TestRegistry_ConcurrentInstanceBuildsOnce(t *testing.T) {
	ctx := context.Background()
	tc := newTestCatalog(fullFirebase(), config.RazorpayConfig{})
	reg := newRegistry(t, tc.catalog, nil)

	const goroutines = 64
	var wg sync.WaitGroup
	results := make([]any, goroutines)
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			inst, err := reg.Instance(ctx, integrations.CategoryPayments)
			assert.NoError(t, err)
			results[i] = inst
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, tc.mockCalls)
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestNew_RejectsCatalogWithoutMock(t *testing.T) {
	var calls int32
	_, err := integrations.New(integrations.Catalog{
		integrations.CategoryGeo: {{Name: "geofire", New: counter("geofire", &calls)}},
	}, nil)
	assert.Error(t, err)
}
