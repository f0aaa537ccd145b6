package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"panellicense/config"
	_ "panellicense/docs" // Swagger docs
	"panellicense/handlers"
	"panellicense/logger"
	"panellicense/metrics"
	"panellicense/middleware"
	"panellicense/scheduler"
	"panellicense/services"
	"panellicense/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the license HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := initLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.WithFields(map[string]interface{}{
		"version": Version,
		"driver":  cfg.Database.Driver,
	}).Info("Panel license server starting")

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	exec := services.NewSQLExecutor(db)
	store := services.NewSQLLicenseStore(exec)
	m := metrics.New()

	authority := services.NewLicenseAuthority(store,
		services.WithGracePeriod(cfg.License.GracePeriod),
		services.WithActivityLog(services.NewSQLActivityLog(exec)),
		services.WithObserver(m.ObserveOperation),
	)

	tm, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	signer := utils.NewResponseSigner(cfg.License.SigningSecret)
	if signer == nil {
		logger.Warn("license.signing_secret is empty, validation responses are unsigned")
	}

	clientIPs, err := middleware.NewClientIPResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}
	limiter, closeLimiter := newRateLimiter(ctx, cfg)
	defer closeLimiter()

	mux := handlers.NewRouter(handlers.RouterDeps{
		Licenses:     handlers.NewLicenseHandler(authority, signer),
		Health:       handlers.NewHealthHandler(db, Version),
		TokenManager: tm,
		RateLimiter:  limiter,
		ClientIPs:    clientIPs,
		Metrics:      m,
		Logger:       logger.Slog(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go scheduler.New(store, m, cfg.Scheduler.Interval).Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]interface{}{
			"addr": srv.Addr,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newRateLimiter picks the shared Redis limiter when redis.addr is set and reachable, the
// in-process limiter otherwise. It returns nil when rate limiting is disabled.
func newRateLimiter(ctx context.Context, cfg *config.Config) (middleware.RateLimiter, func()) {
	noop := func() {}
	if !cfg.RateLimit.Enabled {
		return nil, noop
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.WithFields(map[string]interface{}{
				"addr": cfg.Redis.Addr,
			}).Info("Using Redis rate limiter")
			return middleware.NewRedisRateLimiter(client, cfg.RateLimit.RequestsPerMinute, time.Minute),
				func() { _ = client.Close() }
		}

		logger.WithFields(map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		}).Warn("Redis unreachable, falling back to in-process rate limiter")
		_ = client.Close()
	}

	return middleware.NewLocalRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst), noop
}
