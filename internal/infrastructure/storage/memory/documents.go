package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/domain"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
)

type record struct {
	doc     commercial.Document
	entries []ledger.Payment
}

// DocumentRepo implements commercial.Repository in memory.
type DocumentRepo struct {
	store *Store
}

// NewDocumentRepo creates a document repository over store.
func NewDocumentRepo(store *Store) *DocumentRepo {
	return &DocumentRepo{store: store}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *commercial.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := doc.ID.String()
	if _, exists := r.store.docs[key]; exists {
		return apperror.NewConcurrentModification("document", doc.ID)
	}
	for _, rec := range r.store.docs {
		if doc.Number != "" && rec.doc.Number == doc.Number {
			return apperror.NewValidationKind(apperror.KindInvalidFormat, "number", "document number already exists")
		}
	}

	r.store.docs[key] = &record{doc: snapshot(doc), entries: doc.Ledger.Entries()}
	onRollback(ctx, func() { delete(r.store.docs, key) })
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*commercial.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.docs[docID.String()]
	if !ok {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	return rec.materialize(), nil
}

func (r *DocumentRepo) Update(ctx context.Context, doc *commercial.Document) error {
	return r.swap(ctx, doc, nil)
}

func (r *DocumentRepo) AppendPayment(ctx context.Context, doc *commercial.Document, payment ledger.Payment) error {
	return r.swap(ctx, doc, &payment)
}

// swap is the compare-and-swap shared by Update and AppendPayment.
func (r *DocumentRepo) swap(ctx context.Context, doc *commercial.Document, payment *ledger.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := doc.ID.String()
	prev, ok := r.store.docs[key]
	if !ok {
		return apperror.NewNotFound("document", doc.ID.String())
	}
	if prev.doc.Version != doc.Version {
		return apperror.NewConcurrentModification("document", doc.ID)
	}

	entries := prev.entries
	if payment != nil {
		for _, e := range entries {
			if e.TransactionID == payment.TransactionID {
				return apperror.NewPaymentRejected(apperror.ReasonDuplicateKey,
					"transaction id already recorded").
					WithDetail("transactionId", payment.TransactionID)
			}
		}
		entries = append(slices.Clone(entries), *payment)
	}

	next := &record{doc: snapshot(doc), entries: entries}
	next.doc.Version++
	r.store.docs[key] = next
	onRollback(ctx, func() { r.store.docs[key] = prev })

	doc.Version = next.doc.Version
	return nil
}

func (r *DocumentRepo) List(ctx context.Context, filter commercial.ListFilter) (domain.ListResult[*commercial.Document], error) {
	if err := ctx.Err(); err != nil {
		return domain.ListResult[*commercial.Document]{}, err
	}
	filter.Normalize()

	r.store.mu.RLock()
	matched := make([]*commercial.Document, 0, len(r.store.docs))
	for _, rec := range r.store.docs {
		if matches(&rec.doc, filter) {
			matched = append(matched, rec.materialize())
		}
	}
	r.store.mu.RUnlock()

	column, desc := filter.SortColumn(commercial.SortableColumns, "created_at")
	slices.SortStableFunc(matched, func(a, b *commercial.Document) int {
		c := compareColumn(a, b, column)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if desc {
			return -c
		}
		return c
	})

	result := domain.ListResult[*commercial.Document]{
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Offset < len(matched) {
		end := min(filter.Offset+filter.Limit, len(matched))
		result.Items = matched[filter.Offset:end]
	} else {
		result.Items = []*commercial.Document{}
	}
	return result, nil
}

func matches(doc *commercial.Document, f commercial.ListFilter) bool {
	if f.Kind != nil && doc.Kind != *f.Kind {
		return false
	}
	if f.Status != nil && doc.Status != *f.Status {
		return false
	}
	if f.CounterpartyID != "" && doc.CounterpartyID != f.CounterpartyID {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		return strings.Contains(strings.ToLower(doc.Number), s) ||
			strings.Contains(strings.ToLower(doc.CounterpartyID), s)
	}
	return true
}

func compareColumn(a, b *commercial.Document, column string) int {
	switch column {
	case "number":
		return strings.Compare(a.Number, b.Number)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case "net_amount_after_tax":
		return a.NetAmountAfterTax.Cmp(b.NetAmountAfterTax)
	case "status":
		return cmp.Compare(a.Status, b.Status)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// snapshot copies the header and lines; the ledger is kept as entries on the record.
func snapshot(doc *commercial.Document) commercial.Document {
	cp := *doc
	cp.Lines = slices.Clone(doc.Lines)
	cp.Ledger = ledger.Ledger{}
	return cp
}

func (rec *record) materialize() *commercial.Document {
	doc := rec.doc
	doc.Lines = slices.Clone(rec.doc.Lines)
	doc.Ledger = ledger.New(doc.ID, rec.entries)
	return &doc
}

var _ commercial.Repository = (*DocumentRepo)(nil)
