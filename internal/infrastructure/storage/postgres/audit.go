package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/id"
	"ordercore/internal/domain/documents/commercial"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID                id.ID                    `db:"id"`
	EntityType        string                   `db:"entity_type"`
	EntityID          id.ID                    `db:"entity_id"`
	Action            commercial.HistoryAction `db:"action"`
	EventID           *id.ID                   `db:"event_id"`
	UserID            string                   `db:"user_id"`
	Changes           json.RawMessage          `db:"changes"`
	ChangesCompressed []byte                   `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo          `db:"compression_algo"`
	TraceID           string                   `db:"trace_id"`
	CreatedAt         time.Time                `db:"created_at"`
}

// AuditService writes and reads sys_audit. Large change sets are zstd-compressed.
type AuditService struct {
	txManager         *TxManager
	codec             *auditCodec
	compressThreshold int
}

// DefaultCompressThreshold is the change-set size above which entries are compressed.
const DefaultCompressThreshold = 4 * 1024

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	codec, err := newAuditCodec()
	if err != nil {
		return nil, err
	}
	return &AuditService{
		txManager:         txManager,
		codec:             codec,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Log records an audit entry. Repeated event ids are ignored.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.codec.pack(&entry, s.compressThreshold)

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, event_id, user_id,
			changes, changes_compressed, compression_algo, trace_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) WHERE event_id IS NOT NULL DO NOTHING
	`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.EventID, entry.UserID,
		nullJSON(entry.Changes), entry.ChangesCompressed, entry.CompressionAlgo, entry.TraceID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Handle implements OutboxHandler: each relayed event becomes one audit entry.
func (s *AuditService) Handle(ctx context.Context, msg *OutboxMessage) error {
	eventID := msg.ID
	return s.Log(ctx, AuditEntry{
		EntityType: msg.AggregateType,
		EntityID:   msg.AggregateID,
		Action:     commercial.HistoryActionOf(msg.EventType),
		EventID:    &eventID,
		UserID:     msg.ActorID,
		Changes:    json.RawMessage(msg.Payload),
		TraceID:    msg.TraceID,
		CreatedAt:  msg.CreatedAt,
	})
}

// GetEntityHistory returns the newest entries of an entity first, decompressed.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, `
		SELECT id, entity_type, entity_id, action, event_id, user_id,
		       changes, changes_compressed, compression_algo, trace_id, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	for i := range entries {
		if err := s.codec.unpack(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// History implements commercial.HistoryReader over the relayed audit log.
// Events still waiting in the outbox are not visible yet.
func (s *AuditService) History(ctx context.Context, docID id.ID, limit int) ([]commercial.HistoryEntry, error) {
	entries, err := s.GetEntityHistory(ctx, commercial.AggregateType, docID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]commercial.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = commercial.HistoryEntry{
			Action:  e.Action,
			ActorID: e.UserID,
			TraceID: e.TraceID,
			Changes: e.Changes,
			At:      e.CreatedAt,
		}
		if e.EventID != nil {
			out[i].EventID = *e.EventID
		} else {
			out[i].EventID = e.ID
		}
	}
	return out, nil
}

var _ commercial.HistoryReader = (*AuditService)(nil)

// auditCodec holds reusable zstd state. EncodeAll and DecodeAll are safe for concurrent use.
type auditCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newAuditCodec() (*auditCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &auditCodec{encoder: encoder, decoder: decoder}, nil
}

func (c *auditCodec) pack(entry *AuditEntry, threshold int) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > threshold {
		entry.ChangesCompressed = c.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
}

func (c *auditCodec) unpack(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := c.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	entry.Changes = raw
	entry.ChangesCompressed = nil
	return nil
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
