package selectionRepo

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"meramarket/config"
	"meramarket/services/integrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(t.Name()))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, setupTestDB(t))
	require.NoError(t, err)

	got, err := store.Get(ctx, integrations.CategoryPayments)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, integrations.CategoryPayments, "razorpay"))
	require.NoError(t, store.Set(ctx, integrations.CategoryPayments, "stripe"))
	got, err = store.Get(ctx, integrations.CategoryPayments)
	require.NoError(t, err)
	assert.Equal(t, "stripe", got)
}

func TestSQLiteStoreSurvivesRegistryRebuild(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	catalog := integrations.Catalog{
		integrations.CategoryPayments: {
			{Name: integrations.ProviderMock, New: func(context.Context) (any, error) { return "mock", nil }},
			{Name: "stripe", Requires: config.StripeConfig{SecretKey: "sk_test"}, New: func(context.Context) (any, error) { return "stripe", nil }},
		},
	}

	store, err := NewSQLiteStore(ctx, db)
	require.NoError(t, err)
	reg, err := integrations.New(catalog, store)
	require.NoError(t, err)
	sel, err := reg.SetProvider(ctx, integrations.CategoryPayments, "stripe")
	require.NoError(t, err)
	require.Equal(t, "stripe", sel.Active)

	store2, err := NewSQLiteStore(ctx, db)
	require.NoError(t, err)
	reg2, err := integrations.New(catalog, store2)
	require.NoError(t, err)
	name, err := reg2.Provider(ctx, integrations.CategoryPayments)
	require.NoError(t, err)
	assert.Equal(t, "stripe", name)
}
