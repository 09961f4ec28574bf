package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/quotecart/api/routes"
	"github.com/angelmondragon/quotecart/internal/catalog"
	"github.com/angelmondragon/quotecart/internal/quotecart"
	"github.com/angelmondragon/quotecart/internal/submission"
	"github.com/angelmondragon/quotecart/pkg/config"
	"github.com/angelmondragon/quotecart/pkg/db"
	"github.com/angelmondragon/quotecart/pkg/instance"
	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
	"github.com/angelmondragon/quotecart/pkg/migrate"
	"github.com/angelmondragon/quotecart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "redis not configured; idempotency replay disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	storage, err := buildCartStorage(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to build cart storage", err)
		os.Exit(1)
	}
	carts, err := quotecart.NewRegistry(quotecart.RegistryOptions{
		Storage:      storage,
		KeyPrefix:    cfg.Cart.KeyPrefix,
		Logger:       logg,
		Metrics:      cartMetrics,
		MaxSessions:  cfg.Cart.MaxSessions,
		IdleTTL:      cfg.Cart.IdleTTL,
		SweepStorage: cfg.Cart.StorageBackend() == config.CartStorageMemory,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart registry", err)
		os.Exit(1)
	}
	go func() {
		if err := carts.Run(ctx, cfg.Cart.IdleTTL/2); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cart registry sweeper stopped", err)
		}
	}()

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	submitter, submitterCloser, err := buildSubmitter(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to build submitter", err)
		os.Exit(1)
	}
	submissionService, err := submission.NewService(submission.ServiceParams{
		Submitter: submitter,
		Prices:    catalogService,
		Logger:    logg,
		Metrics:   cartMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create submission service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Catalog:     catalogService,
			Carts:       carts,
			Submissions: submissionService,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"addr":         addr,
			"cart_storage": cfg.Cart.StorageBackend(),
			"submission":   cfg.Submission.Transport(),
		}), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(shutdownCtx))
	shutdownErr = multierr.Append(shutdownErr, carts.Flush(shutdownCtx))
	shutdownErr = multierr.Append(shutdownErr, submitterCloser.Close())
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())

	if shutdownErr != nil {
		logg.Error(shutdownCtx, "errors during shutdown", shutdownErr)
		exitCode = 1
	} else {
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
	stop()
	os.Exit(exitCode)
}
