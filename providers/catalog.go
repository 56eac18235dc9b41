package providers

import (
	"context"
	"fmt"
	"strings"

	"meramarket/config"
	firestoreRepo "meramarket/database/repository/firestore"
	listingRepo "meramarket/database/repository/listing"
	"meramarket/services/auth"
	"meramarket/services/geo"
	"meramarket/services/integrations"
	"meramarket/services/listings"
	"meramarket/services/payments"
	"meramarket/services/storage"
	"meramarket/utils"

	"go.uber.org/zap"
)

// Catalog declares every provider. Each factory opens what it needs through
// deps on first activation.
func Catalog(deps *Deps) integrations.Catalog {
	cfg := deps.Config
	logger := deps.Logger

	return integrations.Catalog{
		integrations.CategoryAuth: {
			{
				Name:  integrations.ProviderMock,
				Label: "Mock auth",
				New: func(ctx context.Context) (any, error) {
					secret, err := deps.JWTSecret()
					if err != nil {
						return nil, err
					}
					password := mockAdminPassword(cfg, logger)
					return auth.NewMockService(secret, logger.Named("auth"), auth.WithAdminPassword(password))
				},
			},
			{
				Name:     "firebase",
				Label:    "Firebase Auth",
				Requires: cfg.Firebase(),
				New: func(ctx context.Context) (any, error) {
					app, err := deps.Firebase(ctx)
					if err != nil {
						return nil, err
					}
					client, err := app.Auth(ctx)
					if err != nil {
						return nil, fmt.Errorf("firebase auth client: %w", err)
					}
					signIn, err := auth.IdentityToolkitSignIn(ctx, cfg.FirebaseAPIKey)
					if err != nil {
						return nil, err
					}
					return auth.NewFirebaseService(client, signIn, deps.OTPStore(ctx), logger.Named("auth")), nil
				},
			},
		},

		integrations.CategoryData: {
			{
				Name:  integrations.ProviderMock,
				Label: "In-memory data",
				New: func(context.Context) (any, error) {
					return listings.NewMockStore(), nil
				},
			},
			{
				Name:     "mongo",
				Label:    "MongoDB",
				Requires: cfg.Mongo(),
				New: func(ctx context.Context) (any, error) {
					db, err := deps.Mongo(ctx)
					if err != nil {
						return nil, err
					}
					return listingRepo.NewMongoStore(ctx, db, logger.Named("data"))
				},
			},
			{
				Name:     "firestore",
				Label:    "Cloud Firestore",
				Requires: cfg.Firebase(),
				New: func(ctx context.Context) (any, error) {
					app, err := deps.Firebase(ctx)
					if err != nil {
						return nil, err
					}
					client, err := app.Firestore(ctx)
					if err != nil {
						return nil, fmt.Errorf("firestore client: %w", err)
					}
					return firestoreRepo.NewStore(client, logger.Named("data")), nil
				},
			},
		},

		integrations.CategoryPayments: {
			{
				Name:  integrations.ProviderMock,
				Label: "Mock payments",
				New: func(context.Context) (any, error) {
					return payments.NewMockGateway(), nil
				},
			},
			{
				Name:     "razorpay",
				Label:    "Razorpay",
				Requires: cfg.Razorpay(),
				New: func(context.Context) (any, error) {
					return payments.NewRazorpayGateway(cfg.Razorpay(), logger.Named("payments"))
				},
			},
			{
				Name:     "stripe",
				Label:    "Stripe",
				Requires: cfg.Stripe(),
				New: func(context.Context) (any, error) {
					return payments.NewStripeGateway(cfg.Stripe(), logger.Named("payments"))
				},
			},
		},

		integrations.CategoryStorage: {
			{
				Name:  integrations.ProviderMock,
				Label: "Local disk",
				New: func(context.Context) (any, error) {
					return storage.NewLocalService(cfg.LocalStorageDir, UploadsURL(cfg), logger.Named("storage"))
				},
			},
			{
				Name:     "cloudinary",
				Label:    "Cloudinary",
				Requires: cfg.Cloudinary(),
				New: func(context.Context) (any, error) {
					cld, err := utils.NewCloudinary(cfg.Cloudinary())
					if err != nil {
						return nil, err
					}
					return storage.NewCloudinaryService(cld, logger.Named("storage")), nil
				},
			},
			{
				Name:     "firebase",
				Label:    "Firebase Storage",
				Requires: cfg.Firebase(),
				New: func(ctx context.Context) (any, error) {
					app, err := deps.Firebase(ctx)
					if err != nil {
						return nil, err
					}
					return storage.NewFirebaseService(ctx, app, cfg.FirebaseStorageBucket, logger.Named("storage"))
				},
			},
		},

		integrations.CategoryGeo: {
			{
				Name:  integrations.ProviderMock,
				Label: "Fixed location",
				New: func(context.Context) (any, error) {
					return geo.NewMockService(), nil
				},
			},
			{
				Name:     "geofire",
				Label:    "Geohash + IP lookup",
				Requires: cfg.Geo(),
				New: func(context.Context) (any, error) {
					return geo.NewGeoFireService(cfg.GeoIPEndpoint, logger.Named("geo")), nil
				},
			},
		},
	}
}

// mockAdminPassword picks the mock admin's password. Production never falls
// back to the development default.
func mockAdminPassword(cfg *config.Config, logger *zap.Logger) string {
	if cfg.MockAdminPassword != "" {
		return cfg.MockAdminPassword
	}
	if cfg.IsProduction() || config.IsProduction() {
		logger.Warn("MOCK_ADMIN_PASSWORD is not set, mock admin account not seeded")
		return ""
	}
	return auth.MockAdminPassword
}

// UploadsPath is where the local storage directory is served.
const UploadsPath = "/uploads"

// UploadsURL is the public prefix of locally stored files.
func UploadsURL(cfg *config.Config) string {
	return strings.TrimRight(cfg.PublicBaseURL, "/") + UploadsPath
}
