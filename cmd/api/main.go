// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the moderation admin API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to MongoDB and ensure indexes.
//  4. Connect to Redis when a redis backend is selected.
//  5. Build the token issuer, ledger, resolver and limiter.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/modgate/internal/api"
	"github.com/taibuivan/modgate/internal/auth"
	"github.com/taibuivan/modgate/internal/moderation"
	"github.com/taibuivan/modgate/internal/platform/config"
	"github.com/taibuivan/modgate/internal/platform/constants"
	"github.com/taibuivan/modgate/internal/platform/metrics"
	"github.com/taibuivan/modgate/internal/platform/middleware"
	mongostore "github.com/taibuivan/modgate/internal/platform/mongo"
	redisstore "github.com/taibuivan/modgate/internal/platform/redis"
	"github.com/taibuivan/modgate/internal/platform/sec"
	"github.com/taibuivan/modgate/internal/ratelimit"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("ledger_backend", cfg.LedgerBackend),
		slog.String("rate_limit_backend", cfg.RateLimitBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. MongoDB ────────────────────────────────────────────────────────
	store, err := mongostore.Connect(startupCtx, cfg.MongoURI, cfg.MongoDatabase, log)
	must(log, err, "connect to mongo")
	defer func() {
		log.Info("closing mongo client")
		if cerr := store.Close(); cerr != nil {
			log.Error("mongo close error", slog.Any("error", cerr))
		}
	}()

	adminRepository := auth.NewMongoAdminRepository(store.DB())
	moderatorRepository := auth.NewMongoModeratorRepository(store.DB())
	userRepository := moderation.NewMongoUserRepository(store.DB())

	must(log, adminRepository.EnsureIndexes(startupCtx), "ensure admin indexes")
	must(log, moderatorRepository.EnsureIndexes(startupCtx), "ensure moderator indexes")

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.NeedsRedis() {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Security Core ──────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(registry)

	issuer, err := sec.NewTokenIssuer(sec.SigningKeys{
		Admin:            cfg.AdminTokenSecret,
		ModeratorAccess:  cfg.ModeratorAccessTokenSecret,
		ModeratorRefresh: cfg.ModeratorRefreshTokenSecret,
	}, constants.AuthIssuer)
	must(log, err, "initialize token issuer")

	var ledgerStore auth.LedgerStore = moderatorRepository
	if cfg.LedgerBackend == config.BackendRedis {
		ledgerStore = auth.NewRedisLedgerStore(rdb)
	}
	ledger := auth.NewLedger(ledgerStore)

	resolver := auth.NewResolver(issuer, adminRepository, moderatorRepository, appMetrics)

	var limiter ratelimit.Limiter = ratelimit.NewMemory(ratelimit.DefaultPolicy())
	if cfg.RateLimitBackend == config.BackendRedis {
		limiter = ratelimit.NewRedis(rdb, ratelimit.DefaultPolicy())
	}
	verificationGate := ratelimit.NewGate(limiter, moderation.ActionVerification, appMetrics)

	// The per-IP limiter sweeps idle clients until shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	ipLimiter := middleware.NewIPRateLimiter(constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)
	go ipLimiter.Run(appCtx)

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	healthDeps := api.HealthDependencies{CheckDatabase: store.Ping}
	if rdb != nil {
		healthDeps.CheckCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(adminRepository, moderatorRepository, ledger, issuer, appMetrics)
	moderationService := moderation.NewService(userRepository)

	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       auth.NewHandler(authService, cfg.IsProduction()),
		Moderation: moderation.NewHandler(moderationService, verificationGate),
	}

	server := api.NewServer(cfg, log, api.Dependencies{
		Authenticator: resolver,
		IPLimiter:     ipLimiter,
		Metrics:       appMetrics,
	}, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
