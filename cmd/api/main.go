// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the vaultlink HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Open blob storage.
//  7. Wire services, handlers and the reclaimer.
//  8. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/vaultlink/internal/api"
	"github.com/taibuivan/vaultlink/internal/identity"
	"github.com/taibuivan/vaultlink/internal/platform/blob"
	"github.com/taibuivan/vaultlink/internal/platform/config"
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/internal/platform/migration"
	pgstore "github.com/taibuivan/vaultlink/internal/platform/postgres"
	redisstore "github.com/taibuivan/vaultlink/internal/platform/redis"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/internal/vault"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "vaultlink"))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "vaultlink"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_backend", cfg.StorageBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; background workers derive from it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log, cfg.Debug), "run migrations")

	// ── 6. Blob Storage ───────────────────────────────────────────────────
	blobs, err := openBlobStore(startupCtx, cfg)
	must(log, err, "open blob storage")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	hasher := sec.NewHasher(cfg.HashConcurrency)

	identityService := identity.NewService(identity.NewPostgresRepository(pool), hasher, log)
	identityHandler := identity.NewHandler(identityService)

	vaultRepository := vault.NewPostgresRepository(pool)
	vaultService := vault.NewService(
		vaultRepository,
		blobs,
		hasher,
		vault.NewLinks(cfg.PublicBaseURL),
		vault.Settings{
			DefaultExpiry:  cfg.DefaultExpiry(),
			MaxExpiry:      cfg.MaxExpiry(),
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		log,
	)
	vaultHandler := vault.NewHandler(vaultService)

	reclaimer := vault.NewReclaimer(
		vaultRepository,
		blobs,
		vault.NewRedisLease(rdb, constants.RedisKeyReclaimLease, constants.ReclaimTimeout, log),
		vault.ReclaimOptions{
			Interval:     cfg.ReclaimInterval,
			SweepOrphans: cfg.ReclaimOrphans,
			OrphanGrace:  cfg.OrphanGrace,
		},
		log,
	)
	reclaimer.Start(appCtx)

	// Health handlers (wired with real dependency checkers)
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Identity:  identityHandler,
		Vault:     vaultHandler,
	}

	server := api.NewServer(appCtx, cfg, log, identityService, handlers)

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
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	shutdownErr := server.Shutdown(shutdownTimeout)

	appCancel()
	reclaimer.Stop()

	if shutdownErr != nil {
		log.Error("shutdown_failed", slog.Any("error", shutdownErr))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// openBlobStore selects the configured storage backend.
func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return blob.NewLocalStore(cfg.UploadDir)
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
