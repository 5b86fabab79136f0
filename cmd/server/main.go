// Package main is the entry point for the ordercore API server.
// Without DATABASE_URL it runs on the in-memory store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordercore/internal/config"
	corenumerator "ordercore/internal/core/numerator"
	"ordercore/internal/core/security"
	"ordercore/internal/core/tx"
	"ordercore/internal/domain/auth"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/lifecycle"
	v1 "ordercore/internal/infrastructure/http/v1"
	"ordercore/internal/infrastructure/http/v1/middleware"
	"ordercore/internal/infrastructure/numerator"
	"ordercore/internal/infrastructure/storage/memory"
	"ordercore/internal/infrastructure/storage/postgres"
	"ordercore/internal/infrastructure/storage/postgres/document_repo"
	"ordercore/pkg/logger"
)

// backend is the storage wiring shared by every service.
type backend struct {
	repo    commercial.Repository
	tx      tx.Manager
	events  commercial.EventPublisher
	history commercial.HistoryReader
	numbers corenumerator.Generator
	pool    *postgres.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	for _, w := range cfg.Warnings {
		log.Warnw("config fallback", "warning", w)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting ordercore server", "env", cfg.Env, "memory_store", cfg.UseMemoryStore())

	be, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	if be.pool != nil {
		defer be.pool.Close()
	}

	// --- Override guard ---
	guard, err := security.NewCELGuard(cfg.OverridePolicy)
	if err != nil {
		log.Fatalw("invalid override policy", "error", err)
	}
	log.Infow("override policy loaded", "expression", guard.Expression())

	// --- Document service ---
	service := commercial.NewService(commercial.ServiceConfig{
		Repo:      be.repo,
		TxManager: be.tx,
		Numerator: be.numbers,
		Machine:   lifecycle.NewMachine(guard),
		Policies:  cfg.AdjustmentPolicies,
		Events:    be.events,
	})

	// --- Payment throttling ---
	paymentLimiter, err := middleware.NewRateLimiter(cfg.PaymentRateLimit)
	if err != nil {
		log.Fatalw("invalid payment rate limit", "error", err)
	}

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Service:        service,
		Pool:           be.pool,
		Logger:         log,
		JWTValidator:   jwtService,
		History:        be.history,
		AuthRequired:   cfg.AuthRequired,
		PaymentLimiter: paymentLimiter,
		CORSOrigins:    cfg.CORSOrigins,
		Development:    cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port, "auth_required", cfg.AuthRequired)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.UseMemoryStore() {
		store := memory.NewStore()
		outbox := memory.NewOutbox(store)
		return &backend{
			repo:    memory.NewDocumentRepo(store),
			tx:      memory.NewTxManager(store),
			events:  outbox,
			history: outbox,
			numbers: corenumerator.NewMemoryGenerator(),
		}, nil
	}

	if err := postgres.Migrate(ctx, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}
	pool.LogStats(ctx)

	txManager := postgres.NewTxManager(pool)
	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &backend{
		repo:    document_repo.NewCommercialRepo(txManager),
		tx:      txManager,
		events:  postgres.NewOutboxPublisher(txManager),
		history: audit,
		numbers: numerator.New(pool),
		pool:    pool,
	}, nil
}
