package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/id"
	"ordercore/internal/domain/documents/commercial"
)

// OutboxMessage is an event held by the memory outbox.
type OutboxMessage struct {
	ID            id.ID
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       map[string]any
	ActorID       string
	TraceID       string
	CreatedAt     time.Time
}

// Outbox implements commercial.EventPublisher in memory.
type Outbox struct {
	store *Store
}

// NewOutbox creates an outbox over store.
func NewOutbox(store *Store) *Outbox {
	return &Outbox{store: store}
}

// Publish appends the event; a rolled back transaction removes it again.
func (o *Outbox) Publish(ctx context.Context, event commercial.Event) error {
	msg := OutboxMessage{
		ID:            id.New(),
		AggregateType: commercial.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.Type,
		Payload:       event.Payload,
		ActorID:       appctx.GetUserID(ctx),
		TraceID:       appctx.GetTraceID(ctx),
		CreatedAt:     time.Now().UTC(),
	}

	o.store.mu.Lock()
	defer o.store.mu.Unlock()

	n := len(o.store.outbox)
	o.store.outbox = append(o.store.outbox, msg)
	onRollback(ctx, func() { o.store.outbox = o.store.outbox[:n] })
	return nil
}

// Messages returns a copy of the published events in order.
func (o *Outbox) Messages() []OutboxMessage {
	o.store.mu.RLock()
	defer o.store.mu.RUnlock()
	return append([]OutboxMessage(nil), o.store.outbox...)
}

// Types returns the event types in publish order.
func (o *Outbox) Types() []string {
	msgs := o.Messages()
	types := make([]string, len(msgs))
	for i, m := range msgs {
		types[i] = m.EventType
	}
	return types
}

// History returns the events of docID, newest first.
func (o *Outbox) History(_ context.Context, docID id.ID, limit int) ([]commercial.HistoryEntry, error) {
	msgs := o.Messages()

	var out []commercial.HistoryEntry
	for i := len(msgs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := msgs[i]
		if m.AggregateID != docID {
			continue
		}
		changes, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal event payload: %w", err)
		}
		out = append(out, commercial.HistoryEntry{
			EventID: m.ID,
			Action:  commercial.HistoryActionOf(m.EventType),
			ActorID: m.ActorID,
			TraceID: m.TraceID,
			Changes: changes,
			At:      m.CreatedAt,
		})
	}
	return out, nil
}

var (
	_ commercial.EventPublisher = (*Outbox)(nil)
	_ commercial.HistoryReader  = (*Outbox)(nil)
)
