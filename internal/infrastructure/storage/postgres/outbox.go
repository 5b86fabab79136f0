package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/id"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is how often a message is retried before it is marked failed.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	ActorID       string       `db:"actor_id"`
	TraceID       string       `db:"trace_id"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes document events to sys_outbox in the caller's transaction.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

var _ commercial.EventPublisher = (*OutboxPublisher)(nil)

// Publish inserts the event. It must run inside a transaction so the event
// commits or rolls back with the change that raised it.
func (p *OutboxPublisher) Publish(ctx context.Context, event commercial.Event) error {
	if !p.txManager.InTransaction(ctx) {
		return errors.New("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = p.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, actor_id, trace_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id.New(), commercial.AggregateType, event.AggregateID, event.Type, payload,
		appctx.GetUserID(ctx), appctx.GetTraceID(ctx), OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

// Handle calls f.
func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay claims pending messages and hands them to a handler.
// Used by the background worker.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch handles one batch of due messages and returns how many succeeded.
// Rows stay locked (SKIP LOCKED) until the batch commits, so several workers can run.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, actor_id, trace_id,
			       status, retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, q, msg); err != nil {
				logger.Warn(ctx, "outbox message failed",
					"message_id", msg.ID,
					"event_type", msg.EventType,
					"retry", msg.RetryCount+1,
					"error", err)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage) error {
	// A savepoint keeps a failing handler from aborting the whole batch.
	opts := DefaultTxOptions()
	opts.UseSavepoint = true
	handleErr := r.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		return r.handler.Handle(ctx, msg)
	})
	if handleErr != nil {
		// Linear backoff: one more minute per attempt.
		nextRetry := time.Now().UTC().Add(time.Duration(msg.RetryCount+1) * time.Minute)
		_, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, handleErr.Error(), nextRetry, MaxOutboxRetries, OutboxStatusFailed, msg.ID)
		if err != nil {
			return fmt.Errorf("update failed message: %w", err)
		}
		return handleErr
	}

	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)
	if err != nil {
		return fmt.Errorf("mark message published: %w", err)
	}
	return nil
}

// MoveToDLQ moves failed messages to the dead letter table.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, actor_id, trace_id,
			          retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, actor_id, trace_id,
		                            retry_count, failure_reason, created_at, failed_at)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, actor_id, trace_id,
		       retry_count, last_error, created_at, NOW()
		FROM moved
	`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}
