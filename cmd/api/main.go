package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/posbill/billsync-backend/api/routes"
	"github.com/posbill/billsync-backend/internal/billing"
	"github.com/posbill/billsync-backend/internal/catalog"
	syncsvc "github.com/posbill/billsync-backend/internal/sync"
	"github.com/posbill/billsync-backend/internal/vendors"
	"github.com/posbill/billsync-backend/pkg/config"
	"github.com/posbill/billsync-backend/pkg/db"
	"github.com/posbill/billsync-backend/pkg/logger"
	"github.com/posbill/billsync-backend/pkg/metrics"
	"github.com/posbill/billsync-backend/pkg/migrate"
	"github.com/posbill/billsync-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	serviceMetrics := metrics.NewServiceMetrics(registry)

	syncService, err := syncsvc.NewService(syncsvc.NewRepository(dbClient.DB()), dbClient, logg, serviceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	sequences, err := billing.NewSequenceGenerator(billingRepo, dbClient, cfg.Sequence, serviceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sequence generator", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billingRepo, dbClient, sequences, redisClient, cfg.Idempotency, logg, serviceMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	vendorService, err := vendors.NewService(vendors.NewRepository(dbClient.DB()), cfg.Pin, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			syncService,
			catalogService,
			billingService,
			sequences,
			vendorService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
