// Package main is the entry point for the ordercore background worker.
// It relays outbox events into the audit log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ordercore/internal/config"
	"ordercore/internal/infrastructure/storage/postgres"
	"ordercore/pkg/logger"
)

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

	if cfg.UseMemoryStore() {
		log.Fatal("worker requires DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting ordercore worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	worker := NewWorker(postgres.NewOutboxRelay(txManager, cfg.OutboxBatchSize, audit), pool, cfg.OutboxPollInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker drains the outbox on a fixed interval.
type Worker struct {
	relay        *postgres.OutboxRelay
	pool         *postgres.Pool
	pollInterval time.Duration
	log          *logger.Logger
}

func NewWorker(relay *postgres.OutboxRelay, pool *postgres.Pool, pollInterval time.Duration, log *logger.Logger) *Worker {
	return &Worker{
		relay:        relay,
		pool:         pool,
		pollInterval: pollInterval,
		log:          log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(5 * time.Minute)
	defer dlqTicker.Stop()

	statsTicker := time.NewTicker(1 * time.Minute)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-dlqTicker.C:
			w.moveDeadLetters(ctx)
		case <-statsTicker.C:
			w.pool.LogStats(ctx)
		}
	}
}

// drain repeats batches until one publishes nothing.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) moveDeadLetters(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move dead letters", "error", err)
		return
	}
	if moved > 0 {
		w.log.Warnw("moved outbox messages to dead letter queue", "count", moved)
	}
}
