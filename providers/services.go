package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meramarket/config"
	interestRepo "meramarket/database/repository/interest"
	paymentRepo "meramarket/database/repository/payment"
	recordsRepo "meramarket/database/repository/records"
	selectionRepo "meramarket/database/repository/selection"
	"meramarket/services/admin"
	"meramarket/services/billing"
	"meramarket/services/integrations"
	"meramarket/services/interest"
	"meramarket/services/listings"
	"meramarket/services/notification"
	"meramarket/services/payments"
	"meramarket/utils"

	"go.uber.org/zap"
)

// Services is everything the HTTP layer, cron and CLI depend on.
type Services struct {
	Config    *config.Config
	Registry  *integrations.Registry
	Listings  *listings.Service
	Payments  *payments.Service
	Billing   *billing.Service
	Interests *interest.Service
	Admin     *admin.Service

	deps *Deps
}

// Build wires the registry and every service on top of it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	deps := NewDeps(cfg, logger)

	store, err := SelectionStore(ctx, deps)
	if err != nil {
		return nil, err
	}
	registry, err := integrations.New(Catalog(deps), store,
		integrations.WithLogger(logger.Named("integrations")),
		integrations.WithMockOnly(cfg.UseMocks))
	if err != nil {
		return nil, err
	}
	if cfg.UseMocks {
		logger.Info("USE_MOCKS is set, every integration runs on its mock provider")
	}

	ledger, history := records(ctx, deps)
	interests, err := interestStore(ctx, deps)
	if err != nil {
		return nil, err
	}

	list := listings.NewService(registry, logger.Named("listings"))
	pay := payments.NewService(registry, ledger, logger.Named("payments"))
	bill := billing.NewService(registry, pay, list, logger.Named("billing"))
	inbox := interest.NewService(interests, list, logger.Named("interest"),
		interest.WithNotifier(notifier(ctx, deps)))

	return &Services{
		Config:    cfg,
		Registry:  registry,
		Listings:  list,
		Payments:  pay,
		Billing:   bill,
		Interests: inbox,
		Admin:     admin.NewService(registry, list, pay, bill, history, logger.Named("admin")),
		deps:      deps,
	}, nil
}

// Close releases provider instances and shared clients.
func (s *Services) Close(ctx context.Context) error {
	return errors.Join(s.Registry.Close(ctx), s.deps.Close(ctx))
}

// SelectionStore opens the store named by SELECTION_STORE.
func SelectionStore(ctx context.Context, deps *Deps) (integrations.SelectionStore, error) {
	switch kind := strings.ToLower(deps.Config.SelectionStore); kind {
	case "", "memory":
		return integrations.NewMemoryStore(), nil
	case "redis":
		client, err := deps.Redis(ctx, deps.Config.RedisCacheDB)
		if err != nil {
			return nil, err
		}
		return selectionRepo.NewRedisStore(client), nil
	case "sqlite":
		db, err := deps.SQLite()
		if err != nil {
			return nil, err
		}
		return selectionRepo.NewSQLiteStore(ctx, db)
	default:
		return nil, fmt.Errorf("unknown SELECTION_STORE %q", kind)
	}
}

// records keeps the payment ledger and moderation history in MongoDB when
// it is configured and reachable, in memory otherwise.
func records(ctx context.Context, deps *Deps) (payments.Ledger, admin.HistoryStore) {
	cfg := deps.Config
	if cfg.UseMocks || len(cfg.Mongo().MissingKeys()) > 0 {
		return payments.NewMemoryLedger(), admin.NewMemoryHistory()
	}

	fallback := func(err error) (payments.Ledger, admin.HistoryStore) {
		deps.Logger.Warn("MongoDB unavailable, keeping payments and history in memory", zap.Error(err))
		return payments.NewMemoryLedger(), admin.NewMemoryHistory()
	}
	db, err := deps.Mongo(ctx)
	if err != nil {
		return fallback(err)
	}
	ledger, err := paymentRepo.NewMongoLedger(ctx, db)
	if err != nil {
		return fallback(err)
	}
	history, err := recordsRepo.NewMongoHistoryRepo(ctx, db)
	if err != nil {
		return fallback(err)
	}
	return ledger, history
}

// notifier delivers pushes through Firebase Cloud Messaging when Firebase is
// configured and keeps them in memory otherwise.
func notifier(ctx context.Context, deps *Deps) notification.Notifier {
	cfg := deps.Config
	logger := deps.Logger.Named("notification")
	if cfg.UseMocks || len(cfg.Firebase().MissingKeys()) > 0 {
		return notification.NewMemoryNotifier(logger)
	}
	app, err := deps.Firebase(ctx)
	if err != nil {
		logger.Warn("Firebase unavailable, keeping pushes in memory", zap.Error(err))
		return notification.NewMemoryNotifier(logger)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Warn("FCM unavailable, keeping pushes in memory", zap.Error(err))
		return notification.NewMemoryNotifier(logger)
	}
	return notification.NewFCMNotifier(client, logger)
}

func interestStore(ctx context.Context, deps *Deps) (interest.Store, error) {
	switch kind := strings.ToLower(deps.Config.InterestStore); kind {
	case "", "memory":
		return interest.NewMemoryStore(), nil
	case "redis":
		client, err := deps.Redis(ctx, deps.Config.RedisCacheDB)
		if err != nil {
			return nil, err
		}
		return interestRepo.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown INTEREST_STORE %q", kind)
	}
}

// HealthChecks probes that every category's active provider can be built.
func (s *Services) HealthChecks() map[string]utils.HealthCheck {
	checks := make(map[string]utils.HealthCheck)
	for _, cat := range s.Registry.Categories() {
		cat := cat
		checks[string(cat)] = func(ctx context.Context) error {
			_, err := s.Registry.Instance(ctx, cat)
			return err
		}
	}
	return checks
}
