// Package cron runs the periodic maintenance jobs.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer retires listings and requirements whose expiry has passed.
type Expirer interface {
	ExpireListings(ctx context.Context) (int, error)
	ExpireRequirements(ctx context.Context) (int, error)
}

// SweepResult counts what one sweep expired.
type SweepResult struct {
	Listings     int
	Requirements int
}

// ExpirySweeper expires stale records through the active data provider.
type ExpirySweeper struct {
	expirer Expirer
	logger  *zap.Logger
	timeout time.Duration
}

func NewExpirySweeper(expirer Expirer, logger *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{expirer: expirer, logger: logger, timeout: 2 * time.Minute}
}

// RunOnce performs a single sweep. A listing failure does not stop the
// requirement sweep; both errors are reported.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var res SweepResult
	var errs []error

	n, err := s.expirer.ExpireListings(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire listings: %w", err))
	}
	res.Listings = n

	n, err = s.expirer.ExpireRequirements(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("expire requirements: %w", err))
	}
	res.Requirements = n

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

// Start schedules the sweeper and returns the running scheduler. Stop it
// with Stop, which waits for a sweep in progress.
func (s *ExpirySweeper) Start(ctx context.Context, schedule string) (*robfig.Cron, error) {
	c := robfig.New(robfig.WithChain(
		robfig.Recover(robfig.DefaultLogger),
		robfig.SkipIfStillRunning(robfig.DefaultLogger),
	))
	if _, err := c.AddFunc(schedule, func() { s.sweep(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid expiry sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	s.logger.Info("Expiry sweeper started", zap.String("schedule", schedule))
	return c, nil
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	start := time.Now()
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("Expiry sweep failed", zap.Error(err))
	}
	if res.Listings > 0 || res.Requirements > 0 || err != nil {
		s.logger.Info("Expiry sweep finished",
			zap.Int("listings", res.Listings),
			zap.Int("requirements", res.Requirements),
			zap.Duration("took", time.Since(start)))
	}
}
