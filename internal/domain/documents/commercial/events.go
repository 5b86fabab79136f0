package commercial

import (
	"context"
	"encoding/json"
	"time"

	"ordercore/internal/core/id"
)

// Event types written to the outbox.
const (
	EventDocumentCreated      = "DocumentCreated"
	EventDocumentUpdated      = "DocumentUpdated"
	EventDocumentTransitioned = "DocumentTransitioned"
	EventPaymentRecorded      = "PaymentRecorded"
	EventPaymentReversed      = "PaymentReversed"
	EventAdvanceTransferred   = "AdvanceTransferred"
)

// AggregateType is the outbox aggregate name of Document.
const AggregateType = "CommercialDocument"

// Event is a domain event raised by a successful mutation.
type Event struct {
	Type        string
	AggregateID id.ID
	Payload     map[string]any
}

// EventPublisher persists events in the caller's transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventPublisherFunc adapts a function to EventPublisher.
type EventPublisherFunc func(ctx context.Context, event Event) error

// Publish calls f.
func (f EventPublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NopPublisher drops events.
var NopPublisher EventPublisher = EventPublisherFunc(func(context.Context, Event) error { return nil })

// HistoryAction is the coarse kind of change an event records.
type HistoryAction string

const (
	HistoryCreate     HistoryAction = "create"
	HistoryUpdate     HistoryAction = "update"
	HistoryTransition HistoryAction = "transition"
	HistoryPayment    HistoryAction = "payment"
	HistoryReversal   HistoryAction = "reversal"
	HistoryTransfer   HistoryAction = "transfer"
)

// HistoryActionOf maps an event type to its history action.
func HistoryActionOf(eventType string) HistoryAction {
	switch eventType {
	case EventDocumentCreated:
		return HistoryCreate
	case EventDocumentTransitioned:
		return HistoryTransition
	case EventPaymentRecorded:
		return HistoryPayment
	case EventPaymentReversed:
		return HistoryReversal
	case EventAdvanceTransferred:
		return HistoryTransfer
	default:
		return HistoryUpdate
	}
}

// HistoryEntry is one recorded change of a document.
type HistoryEntry struct {
	EventID id.ID
	Action  HistoryAction
	ActorID string
	TraceID string
	Changes json.RawMessage
	At      time.Time
}

// HistoryReader returns the changes of a document, newest first.
type HistoryReader interface {
	History(ctx context.Context, docID id.ID, limit int) ([]HistoryEntry, error)
}
