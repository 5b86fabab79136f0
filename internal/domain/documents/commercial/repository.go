package commercial

import (
	"context"

	"ordercore/internal/core/id"
	"ordercore/internal/domain"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
)

// Repository persists documents as whole records.
//
// Update and AppendPayment are compare-and-swap on Version: they succeed only
// when the stored version equals doc.Version, then increment doc.Version.
// A lost race returns apperror CONCURRENT_MODIFICATION.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// Update stores header and lines.
	Update(ctx context.Context, doc *Document) error

	// AppendPayment stores the header and inserts one ledger entry.
	// A duplicate transactionId returns PAYMENT_REJECTED(duplicate_key).
	AppendPayment(ctx context.Context, doc *Document, payment ledger.Payment) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)
}

// ListFilter for filtering documents.
type ListFilter struct {
	domain.ListFilter

	Kind           *Kind
	Status         *lifecycle.Status
	CounterpartyID string
}

// SortableColumns whitelists ListFilter.OrderBy values.
var SortableColumns = map[string]string{
	"number":            "number",
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
	"netAmountAfterTax": "net_amount_after_tax",
	"status":            "status",
}
