package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
	"ordercore/internal/domain"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/pricing"
	"ordercore/internal/infrastructure/storage/postgres"
)

const (
	documentsTable = "documents"
	linesTable     = "document_lines"
	paymentsTable  = "document_payments"

	numberConstraint     = "uq_documents_number"
	paymentKeyConstraint = "uq_document_payments_key"
)

var lineColumns = []string{
	"line_id", "document_id", "line_no", "item_id",
	"quantity", "unit_price", "discount_percent", "tax_percent", "withholding_percent", "charges", "advance",
	"subtotal", "discount_amount", "amount_before_tax", "tax_amount", "withholding_amount", "line_total",
}

var paymentColumns = postgres.ExtractDBColumns[ledger.Payment]()

// lineRow is the flat storage shape of commercial.Line.
type lineRow struct {
	LineID             id.ID       `db:"line_id"`
	DocumentID         id.ID       `db:"document_id"`
	LineNo             int         `db:"line_no"`
	ItemID             string      `db:"item_id"`
	Quantity           types.Money `db:"quantity"`
	UnitPrice          types.Money `db:"unit_price"`
	DiscountPercent    types.Money `db:"discount_percent"`
	TaxPercent         types.Money `db:"tax_percent"`
	WithholdingPercent types.Money `db:"withholding_percent"`
	Charges            types.Money `db:"charges"`
	Advance            types.Money `db:"advance"`
	Subtotal           types.Money `db:"subtotal"`
	DiscountAmount     types.Money `db:"discount_amount"`
	AmountBeforeTax    types.Money `db:"amount_before_tax"`
	TaxAmount          types.Money `db:"tax_amount"`
	WithholdingAmount  types.Money `db:"withholding_amount"`
	LineTotal          types.Money `db:"line_total"`
}

func (r lineRow) line() commercial.Line {
	return commercial.Line{
		LineID: r.LineID,
		LineNo: r.LineNo,
		ItemID: r.ItemID,
		Input: pricing.LineInput{
			Quantity:           r.Quantity,
			UnitPrice:          r.UnitPrice,
			DiscountPercent:    r.DiscountPercent,
			TaxPercent:         r.TaxPercent,
			WithholdingPercent: r.WithholdingPercent,
			Charges:            r.Charges,
			Advance:            r.Advance,
		},
		Breakdown: pricing.Breakdown{
			Subtotal:          r.Subtotal,
			DiscountAmount:    r.DiscountAmount,
			AmountBeforeTax:   r.AmountBeforeTax,
			TaxAmount:         r.TaxAmount,
			WithholdingAmount: r.WithholdingAmount,
			LineTotal:         r.LineTotal,
		},
	}
}

func lineValues(docID id.ID, l commercial.Line) []any {
	in, b := l.Input, l.Breakdown
	return []any{
		l.LineID, docID, l.LineNo, l.ItemID,
		in.Quantity, in.UnitPrice, in.DiscountPercent, in.TaxPercent, in.WithholdingPercent, in.Charges, in.Advance,
		b.Subtotal, b.DiscountAmount, b.AmountBeforeTax, b.TaxAmount, b.WithholdingAmount, b.LineTotal,
	}
}

// CommercialRepo implements commercial.Repository.
// Headers live in documents, lines in document_lines and the ledger in document_payments.
type CommercialRepo struct {
	*BaseDocumentRepo[*commercial.Document]
}

// NewCommercialRepo creates a new commercial document repository.
func NewCommercialRepo(txManager *postgres.TxManager) *CommercialRepo {
	return &CommercialRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*commercial.Document](
			txManager,
			documentsTable,
			postgres.ExtractDBColumns[commercial.Document](),
		),
	}
}

var _ commercial.Repository = (*CommercialRepo)(nil)

// Create inserts the header, lines and any ledger entries.
func (r *CommercialRepo) Create(ctx context.Context, doc *commercial.Document) error {
	if err := r.insert(ctx, doc); err != nil {
		if postgres.IsUniqueViolation(err, numberConstraint) {
			return apperror.NewValidationKind(apperror.KindInvalidFormat, "number", "document number already exists").
				WithDetail("number", doc.Number)
		}
		return err
	}
	if err := r.saveLines(ctx, doc.ID, doc.Lines); err != nil {
		return err
	}
	for _, p := range doc.Ledger.Entries() {
		if err := r.insertPayment(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads the header with lines and ledger.
func (r *CommercialRepo) GetByID(ctx context.Context, docID id.ID) (*commercial.Document, error) {
	doc := &commercial.Document{}
	if err := r.get(ctx, doc, docID); err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, []*commercial.Document{doc}); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update stores header and lines with compare-and-swap on version.
func (r *CommercialRepo) Update(ctx context.Context, doc *commercial.Document) error {
	next, err := r.updateCAS(ctx, doc, doc.ID, doc.Version)
	if err != nil {
		return err
	}
	if err := r.saveLines(ctx, doc.ID, doc.Lines); err != nil {
		return err
	}
	doc.Version = next
	return nil
}

// AppendPayment stores the header with compare-and-swap and inserts one entry.
func (r *CommercialRepo) AppendPayment(ctx context.Context, doc *commercial.Document, payment ledger.Payment) error {
	next, err := r.updateCAS(ctx, doc, doc.ID, doc.Version)
	if err != nil {
		return err
	}
	if err := r.insertPayment(ctx, payment); err != nil {
		return err
	}
	doc.Version = next
	return nil
}

// List returns a page of documents with their lines and ledgers.
func (r *CommercialRepo) List(ctx context.Context, filter commercial.ListFilter) (domain.ListResult[*commercial.Document], error) {
	filter.Normalize()

	where := squirrel.And{}
	if filter.Kind != nil {
		where = append(where, squirrel.Eq{"kind": string(*filter.Kind)})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.CounterpartyID != "" {
		where = append(where, squirrel.Eq{"counterparty_id": filter.CounterpartyID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"counterparty_id": pattern},
		})
	}

	result, err := r.page(ctx, where, filter.ListFilter, commercial.SortableColumns, "created_at")
	if err != nil {
		return result, err
	}
	if result.Items == nil {
		result.Items = []*commercial.Document{}
	}
	if err := r.attachChildren(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

// attachChildren loads lines and ledger entries for docs in two queries.
func (r *CommercialRepo) attachChildren(ctx context.Context, docs []*commercial.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]id.ID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	q := r.querier(ctx)

	linesSQL, linesArgs, err := r.Builder().
		Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"document_id": ids}).
		OrderBy("document_id", "line_no").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lines query: %w", err)
	}
	var rows []lineRow
	if err := pgxscan.Select(ctx, q, &rows, linesSQL, linesArgs...); err != nil {
		return fmt.Errorf("get lines: %w", err)
	}

	paymentsSQL, paymentsArgs, err := r.Builder().
		Select(paymentColumns...).
		From(paymentsTable).
		Where(squirrel.Eq{"document_id": ids}).
		OrderBy("document_id", "created_at", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build payments query: %w", err)
	}
	var payments []ledger.Payment
	if err := pgxscan.Select(ctx, q, &payments, paymentsSQL, paymentsArgs...); err != nil {
		return fmt.Errorf("get payments: %w", err)
	}

	return assemble(docs, rows, payments)
}

// assemble distributes lines and entries over docs and rebuilds every
// breakdown and cached total from the stored inputs.
func assemble(docs []*commercial.Document, rows []lineRow, payments []ledger.Payment) error {
	linesByDoc := make(map[id.ID][]commercial.Line, len(docs))
	for _, row := range rows {
		linesByDoc[row.DocumentID] = append(linesByDoc[row.DocumentID], row.line())
	}
	paymentsByDoc := make(map[id.ID][]ledger.Payment, len(docs))
	for _, p := range payments {
		paymentsByDoc[p.DocumentID] = append(paymentsByDoc[p.DocumentID], p)
	}

	for _, doc := range docs {
		doc.Lines = linesByDoc[doc.ID]
		doc.Ledger = ledger.New(doc.ID, paymentsByDoc[doc.ID])
		if err := doc.Recalculate(); err != nil {
			return fmt.Errorf("recalculate document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// saveLines replaces all lines of a document.
func (r *CommercialRepo) saveLines(ctx context.Context, docID id.ID, lines []commercial.Line) error {
	q := r.querier(ctx)

	if _, err := q.Exec(ctx, "DELETE FROM "+linesTable+" WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	rows := make([][]any, len(lines))
	for i, l := range lines {
		rows[i] = lineValues(docID, l)
	}
	if _, err := postgres.CopyRows(ctx, q, linesTable, lineColumns, rows); err != nil {
		return err
	}
	return nil
}

func (r *CommercialRepo) insertPayment(ctx context.Context, p ledger.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	sql, args, err := r.Builder().
		Insert(paymentsTable).
		SetMap(postgres.StructToMap(p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build payment insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, paymentKeyConstraint) {
			return apperror.NewPaymentRejected(apperror.ReasonDuplicateKey,
				"a ledger entry with this transactionId already exists").
				WithDetail("transactionId", p.TransactionID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}
