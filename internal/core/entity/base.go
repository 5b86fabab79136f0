// Package entity holds the base types shared by persisted aggregates.
package entity

import (
	"context"
	"time"

	"ordercore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains the identity and the optimistic-concurrency token.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented by the repository on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// GetID returns the entity ID.
func (b *BaseEntity) GetID() id.ID {
	return b.ID
}

// GetVersion returns the current version.
func (b *BaseEntity) GetVersion() int {
	return b.Version
}

// SetVersion updates the version number (used by repository after a successful CAS).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument extends BaseEntity with audit fields for documents.
type BaseDocument struct {
	BaseEntity

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// SetCreatedBy records the creating user.
func (b *BaseDocument) SetCreatedBy(userID string) {
	b.CreatedBy = userID
	b.UpdatedBy = userID
}

// SetUpdatedBy records the last modifying user.
func (b *BaseDocument) SetUpdatedBy(userID string) {
	b.UpdatedBy = userID
}

