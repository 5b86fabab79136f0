package dto

import (
	"encoding/json"
	"time"

	"ordercore/internal/domain/documents/commercial"
)

// DefaultHistoryLimit applies when the query omits limit.
const DefaultHistoryLimit = 50

// HistoryQuery pages the change history of a document.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// EffectiveLimit returns Limit or the default.
func (q HistoryQuery) EffectiveLimit() int {
	if q.Limit == 0 {
		return DefaultHistoryLimit
	}
	return q.Limit
}

// HistoryEntryResponse is one recorded change.
type HistoryEntryResponse struct {
	EventID string          `json:"eventId"`
	Action  string          `json:"action"`
	ActorID string          `json:"actorId,omitempty"`
	TraceID string          `json:"traceId,omitempty"`
	Changes json.RawMessage `json:"changes,omitempty"`
	At      time.Time       `json:"at"`
}

// HistoryResponse lists changes newest first.
type HistoryResponse struct {
	DocumentID string                 `json:"documentId"`
	Items      []HistoryEntryResponse `json:"items"`
}

// FromHistory renders entries of d.
func FromHistory(d *commercial.Document, entries []commercial.HistoryEntry) HistoryResponse {
	items := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = HistoryEntryResponse{
			EventID: e.EventID.String(),
			Action:  string(e.Action),
			ActorID: e.ActorID,
			TraceID: e.TraceID,
			Changes: e.Changes,
			At:      e.At,
		}
	}
	return HistoryResponse{DocumentID: d.ID.String(), Items: items}
}
