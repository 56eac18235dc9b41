// Package providers is the composition root: it declares every provider of
// every integration category and builds the services on top of them.
package providers

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"meramarket/config"
	"meramarket/database"
	"meramarket/utils"

	firebase "firebase.google.com/go/v4"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Deps opens shared clients on first use so a provider that is never
// selected never dials its backend.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger

	mu       sync.Mutex
	mongo    *mongo.Client
	firebase *firebase.App
	redis    map[int]*redis.Client
	sqlite   *sql.DB
	otps     utils.OTPStore
	secret   []byte
}

func NewDeps(cfg *config.Config, logger *zap.Logger) *Deps {
	return &Deps{Config: cfg, Logger: logger, redis: make(map[int]*redis.Client)}
}

// Mongo returns the configured database.
func (d *Deps) Mongo(ctx context.Context) (*mongo.Database, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mongo == nil {
		client, err := database.ConnectMongo(ctx, d.Config.Mongo())
		if err != nil {
			return nil, err
		}
		d.mongo = client
	}
	return d.mongo.Database(d.Config.DatabaseName), nil
}

func (d *Deps) Firebase(ctx context.Context) (*firebase.App, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.firebase == nil {
		app, err := utils.NewFirebaseApp(ctx, d.Config.Firebase())
		if err != nil {
			return nil, err
		}
		d.firebase = app
	}
	return d.firebase, nil
}

// Redis returns a client for one logical database.
func (d *Deps) Redis(ctx context.Context, db int) (*redis.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.redis[db]; ok {
		return c, nil
	}
	c, err := utils.NewRedisClient(ctx, d.Config.RedisAddr, d.Config.RedisPassword, db)
	if err != nil {
		return nil, err
	}
	d.redis[db] = c
	return c, nil
}

func (d *Deps) SQLite() (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sqlite == nil {
		db, err := database.OpenSQLite(d.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.sqlite = db
	}
	return d.sqlite, nil
}

// OTPStore prefers Redis and falls back to process memory when Redis is
// unreachable.
func (d *Deps) OTPStore(ctx context.Context) utils.OTPStore {
	d.mu.Lock()
	cached := d.otps
	d.mu.Unlock()
	if cached != nil {
		return cached
	}

	var store utils.OTPStore
	if client, err := d.Redis(ctx, d.Config.RedisOTPDB); err != nil {
		d.Logger.Warn("Redis unavailable, keeping OTPs in memory", zap.Error(err))
		store = utils.NewMemoryOTPStore()
	} else {
		store = utils.NewRedisOTPStore(client)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.otps == nil {
		d.otps = store
	}
	return d.otps
}

// JWTSecret returns the configured signing secret. Without one a random
// secret is generated, so sessions do not survive a restart.
func (d *Deps) JWTSecret() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.secret != nil {
		return d.secret, nil
	}
	if d.Config.JWTSecret != "" {
		d.secret = []byte(d.Config.JWTSecret)
		return d.secret, nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	d.Logger.Warn("JWT_SECRET is not set; using a random secret for this process")
	d.secret = secret
	return d.secret, nil
}

// Close releases every client that was opened.
func (d *Deps) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.mongo != nil {
		errs = append(errs, d.mongo.Disconnect(ctx))
		d.mongo = nil
	}
	for db, c := range d.redis {
		errs = append(errs, c.Close())
		delete(d.redis, db)
	}
	if d.sqlite != nil {
		errs = append(errs, d.sqlite.Close())
		d.sqlite = nil
	}
	return errors.Join(errs...)
}
