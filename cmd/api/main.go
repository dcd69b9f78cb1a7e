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

	"github.com/angelmondragon/innkeeper-backend/api/routes"
	"github.com/angelmondragon/innkeeper-backend/internal/bootstrap"
	"github.com/angelmondragon/innkeeper-backend/pkg/auth/session"
	"github.com/angelmondragon/innkeeper-backend/pkg/config"
	"github.com/angelmondragon/innkeeper-backend/pkg/db"
	"github.com/angelmondragon/innkeeper-backend/pkg/logger"
	"github.com/angelmondragon/innkeeper-backend/pkg/metrics"
	"github.com/angelmondragon/innkeeper-backend/pkg/migrate"
	"github.com/angelmondragon/innkeeper-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := bootstrap.New(bootstrap.Params{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Metrics:  metrics.NewDomainMetrics(registry),
		Sessions: sessionManager,
		Limiter:  redisClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	created, err := services.Staff.Bootstrap(context.Background(), cfg.Staff.BootstrapUsername, cfg.Staff.BootstrapPassword)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap manager account", err)
		os.Exit(1)
	}
	if created {
		logg.Info(logg.WithField(context.Background(), "username", cfg.Staff.BootstrapUsername), "bootstrap manager account created")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		DB:           dbClient,
		Redis:        redisClient,
		RateLimiter:  redisClient,
		Idempotency:  redisClient,
		Sessions:     sessionManager,
		Gatherer:     registry,
		HTTPMetrics:  metrics.NewHTTPMetrics(registry),
		Staff:        services.Staff,
		Guests:       services.Guests,
		Rooms:        services.Rooms,
		Reservations: services.Reservations,
		Payments:     services.Payments,
		Folio:        services.Folio,
		Inventory:    services.Inventory,
		Waitlist:     services.Waitlist,
		Settings:     services.Settings,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
