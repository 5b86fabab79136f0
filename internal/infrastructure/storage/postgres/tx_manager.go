package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ordercore/internal/core/tx"
	"ordercore/pkg/logger"
)

var tracer = otel.Tracer("ordercore/tx")

var (
	_ tx.Manager         = (*TxManager)(nil)
	_ tx.ReadOnlyManager = (*TxManager)(nil)
)

// TxOptions configures transaction behavior.
type TxOptions struct {
	IsolationLevel pgx.TxIsoLevel
	AccessMode     pgx.TxAccessMode

	// StatementTimeout aborts runaway statements (0 disables)
	StatementTimeout time.Duration

	// UseSavepoint makes a nested call roll back independently
	UseSavepoint bool
}

// DefaultTxOptions returns production-safe defaults.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
	}
}

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool.
// Repositories use it to work inside and outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TxManager keeps the active pgx.Tx in the context.
// Nested calls join the outer transaction unless a savepoint is requested.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

type txKey struct{}

type activeTx struct {
	pgx.Tx
	depth int
}

// RunInTransaction executes fn within a read-committed transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// ReadOnly executes fn in a read-only snapshot transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := DefaultTxOptions()
	opts.IsolationLevel = pgx.RepeatableRead
	opts.AccessMode = pgx.ReadOnly
	return m.RunInTransactionWithOptions(ctx, opts, fn)
}

// RunInTransactionWithOptions executes fn with custom transaction options.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(opts.IsolationLevel)),
			attribute.String("tx.access", string(opts.AccessMode)),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transaction failed")
		}
		span.End()
	}()

	if outer := m.current(ctx); outer != nil {
		span.SetAttributes(attribute.Bool("tx.nested", true))
		if !opts.UseSavepoint {
			return fn(ctx)
		}
		return m.runSavepoint(ctx, outer, fn)
	}
	return m.begin(ctx, opts, fn)
}

func (m *TxManager) begin(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if opts.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", opts.StatementTimeout.Milliseconds())
		if _, err := pgTx.Exec(ctx, stmt); err != nil {
			m.rollback(ctx, pgTx, err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, &activeTx{Tx: pgTx})
	if err := fn(txCtx); err != nil {
		m.rollback(ctx, pgTx, err)
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (m *TxManager) runSavepoint(ctx context.Context, outer *activeTx, fn func(ctx context.Context) error) error {
	name := fmt.Sprintf("sp_%d", outer.depth+1)
	if _, err := outer.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	inner := &activeTx{Tx: outer.Tx, depth: outer.depth + 1}
	if err := fn(context.WithValue(ctx, txKey{}, inner)); err != nil {
		if _, rbErr := outer.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := outer.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// rollback uses a fresh context so a cancelled request still releases the transaction.
func (m *TxManager) rollback(ctx context.Context, pgTx pgx.Tx, cause error) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := pgTx.Rollback(rbCtx); err != nil {
		logger.Error(ctx, "rollback failed", "error", err, "original_error", cause)
	}
}

func (m *TxManager) current(ctx context.Context) *activeTx {
	if t, ok := ctx.Value(txKey{}).(*activeTx); ok {
		return t
	}
	return nil
}

// InTransaction reports whether ctx carries an active transaction.
func (m *TxManager) InTransaction(ctx context.Context) bool {
	return m.current(ctx) != nil
}

// GetQuerier returns the active transaction or the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.current(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
