package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meramarket/config"
	"meramarket/cron"
	"meramarket/handlers"
	"meramarket/middleware"
	"meramarket/providers"
	"meramarket/routes"
	"meramarket/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	healthInterval  = time.Minute
	shutdownTimeout = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, expiry sweeper and health monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.AppPort = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides APP_PORT)")
	return cmd
}

// NewRouter builds the gin engine with the middleware stack and every route.
func NewRouter(svc *providers.Services, logger *zap.Logger) *gin.Engine {
	cfg := svc.Config
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	router.Use(middleware.GeolocationMiddleware(svc.Registry))

	if cfg.LocalStorageDir != "" {
		router.Static(providers.UploadsPath, cfg.LocalStorageDir)
	}
	routes.RegisterRoutes(router, handlers.NewHandlerBundle(svc))
	return router
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := providers.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			logger.Warn("Failed to release providers", zap.Error(err))
		}
	}()

	sweeper := cron.NewExpirySweeper(svc.Listings, logger.Named("cron"))
	scheduler, err := sweeper.Start(ctx, cfg.ExpirySweepSchedule)
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	utils.StartHealthMonitor(ctx, healthInterval, svc.HealthChecks())

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           NewRouter(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.Bool("mocks", cfg.UseMocks))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
