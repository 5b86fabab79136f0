package commercial

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/entity"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
	"ordercore/internal/domain/pricing"
)

// Document is a commercial document with its lines, summary and ledger.
type Document struct {
	entity.BaseDocument

	Number         string                   `db:"number" json:"number"`
	Kind           Kind                     `db:"kind" json:"kind"`
	CounterpartyID string                   `db:"counterparty_id" json:"counterpartyId"`
	Status         lifecycle.Status         `db:"status" json:"status"`
	Policy         pricing.AdjustmentPolicy `db:"adjustment_policy" json:"adjustmentPolicy"`

	// Charges is the document-level charge added on top of line totals.
	Charges types.Money `db:"charges" json:"charges"`

	// Derived caches, rewritten by every successful recompute.
	NetAmountAfterTax   types.Money     `db:"net_amount_after_tax" json:"netAmountAfterTax"`
	CarryForwardAdvance types.Money     `db:"carry_forward_advance" json:"carryForwardAdvance"`
	Summary             pricing.Summary `db:"-" json:"summary"`

	Lines  []Line        `db:"-" json:"lines"`
	Ledger ledger.Ledger `db:"-" json:"-"`
}

// Line is one priced row of a document.
type Line struct {
	LineID    id.ID             `json:"lineId"`
	LineNo    int               `json:"lineNo"`
	ItemID    string            `json:"itemId"`
	Input     pricing.LineInput `json:"input"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// LineDraft is an incoming line before pricing. A nil LineID creates a new line.
type LineDraft struct {
	LineID id.ID
	ItemID string
	Input  pricing.LineInput
}

// NewDocument creates a Draft document with an empty ledger.
func NewDocument(kind Kind, counterpartyID string, policy pricing.AdjustmentPolicy) *Document {
	doc := &Document{
		BaseDocument:        entity.NewBaseDocument(),
		Kind:                kind,
		CounterpartyID:      strings.TrimSpace(counterpartyID),
		Status:              lifecycle.StatusDraft,
		Policy:              policy,
		Charges:             types.Zero(),
		NetAmountAfterTax:   types.Zero(),
		CarryForwardAdvance: types.Zero(),
		Summary:             pricing.Aggregate(nil),
	}
	doc.Ledger = ledger.New(doc.ID, nil)
	return doc
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Kind.IsValid() {
		return apperror.NewValidationKind(apperror.KindInvalidEnum, "kind", "unknown document kind")
	}
	if d.CounterpartyID == "" {
		return apperror.NewValidationKind(apperror.KindRequired, "counterpartyId", "counterparty is required")
	}
	if !d.Status.IsValid() {
		return apperror.NewValidationKind(apperror.KindInvalidEnum, "status", "unknown status")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidationKind(apperror.KindRequired, "lines", "at least one line is required")
	}
	for _, line := range d.Lines {
		if line.ItemID == "" {
			return apperror.NewValidationKind(apperror.KindRequired, "itemId", "item is required").
				WithDetail("line", line.LineNo)
		}
	}
	return nil
}

// StatusLabel returns the kind-specific label of the current status.
func (d *Document) StatusLabel() string {
	return d.Kind.Labels().Of(d.Status)
}

// ReplaceLines prices drafts and swaps them in together with charges.
// The document is left untouched when any line fails.
func (d *Document) ReplaceLines(drafts []LineDraft, charges types.Money) error {
	if !d.Status.AllowsLineEdits() {
		return apperror.NewBusinessRule(apperror.CodeLinesLocked,
			"lines can only be changed in draft or override status").
			WithDetail("status", string(d.Status))
	}
	if len(drafts) == 0 {
		return apperror.NewValidationKind(apperror.KindRequired, "lines", "at least one line is required")
	}

	inputs := make([]pricing.LineInput, len(drafts))
	for i, dr := range drafts {
		if strings.TrimSpace(dr.ItemID) == "" {
			return apperror.NewValidationKind(apperror.KindRequired, "itemId", "item is required").
				WithDetail("line", i+1)
		}
		inputs[i] = dr.Input
	}

	res, err := pricing.ComputeDocument(inputs, charges, d.Policy)
	if err != nil {
		return err
	}

	lines := make([]Line, len(drafts))
	for i, dr := range drafts {
		lineID := dr.LineID
		if id.IsNil(lineID) {
			lineID = id.New()
		}
		lines[i] = Line{
			LineID:    lineID,
			LineNo:    i + 1,
			ItemID:    strings.TrimSpace(dr.ItemID),
			Input:     dr.Input,
			Breakdown: res.Lines[i],
		}
	}

	d.Lines = lines
	d.Charges = charges
	d.Summary = res.Summary
	d.NetAmountAfterTax = res.NetAmountAfterTax
	d.refreshPosition()
	return nil
}

// Recalculate recomputes breakdowns and caches from the stored inputs.
func (d *Document) Recalculate() error {
	inputs := make([]pricing.LineInput, len(d.Lines))
	for i, l := range d.Lines {
		inputs[i] = l.Input
	}

	res, err := pricing.ComputeDocument(inputs, d.Charges, d.Policy)
	if err != nil {
		return err
	}

	lines := make([]Line, len(d.Lines))
	copy(lines, d.Lines)
	for i := range lines {
		lines[i].Breakdown = res.Lines[i]
	}

	d.Lines = lines
	d.Summary = res.Summary
	d.NetAmountAfterTax = res.NetAmountAfterTax
	d.refreshPosition()
	return nil
}

// Position returns the net standing of the document.
func (d *Document) Position() ledger.Position {
	return d.Ledger.Position(d.NetAmountAfterTax)
}

// RecordPayment appends a receipt to the ledger.
func (d *Document) RecordPayment(r ledger.Receipt) (ledger.Payment, error) {
	if err := d.acceptsEntries(); err != nil {
		return ledger.Payment{}, err
	}
	p, err := d.Ledger.Record(r)
	if err != nil {
		return ledger.Payment{}, err
	}
	d.refreshPosition()
	return p, nil
}

// ReversePayment appends a reversal of paymentID.
func (d *Document) ReversePayment(paymentID id.ID, transactionID string, date time.Time) (ledger.Payment, error) {
	if err := d.acceptsEntries(); err != nil {
		return ledger.Payment{}, err
	}
	p, err := d.Ledger.Reverse(paymentID, transactionID, date)
	if err != nil {
		return ledger.Payment{}, err
	}
	d.refreshPosition()
	return p, nil
}

// TransferAdvance moves carry-forward credit from src to dst.
// A zero amount moves as much as src holds and dst still owes.
func TransferAdvance(src, dst *Document, transactionID string, amount types.Money, date time.Time) (out, in ledger.Payment, err error) {
	if src.ID == dst.ID {
		return out, in, apperror.NewValidationKind(apperror.KindOutOfRange, "sourceDocumentId",
			"source and target must differ")
	}
	if src.CounterpartyID != dst.CounterpartyID || src.Kind.Side() != dst.Kind.Side() {
		return out, in, apperror.NewPaymentRejected(apperror.ReasonCounterparty,
			"advance can only move between documents of the same counterparty and side").
			WithDetail("sourceKind", string(src.Kind)).
			WithDetail("targetKind", string(dst.Kind))
	}
	if err := src.acceptsEntries(); err != nil {
		return out, in, err
	}
	if err := dst.acceptsEntries(); err != nil {
		return out, in, err
	}

	available := src.Position().CarryForwardAdvance
	outstanding := dst.Position().NetReceivable
	if !available.IsPositive() {
		return out, in, apperror.NewPaymentRejected(apperror.ReasonNoAdvance,
			"source document has no carry-forward advance")
	}
	if !outstanding.IsPositive() {
		return out, in, apperror.NewPaymentRejected(apperror.ReasonNothingOutstanding,
			"target document has nothing outstanding")
	}

	if amount.IsZero() {
		amount = decimal.Min(available, outstanding)
	} else if amount.GreaterThan(outstanding) {
		return out, in, apperror.NewPaymentRejected(apperror.ReasonNothingOutstanding,
			"transfer exceeds the target's outstanding balance").
			WithDetail("outstanding", outstanding.String())
	}

	srcLedger, dstLedger := src.Ledger, dst.Ledger
	if out, err = srcLedger.TransferOut(transactionID, amount, available, dst.ID, date); err != nil {
		return ledger.Payment{}, ledger.Payment{}, err
	}
	if in, err = dstLedger.TransferIn(transactionID, amount, src.ID, date); err != nil {
		return ledger.Payment{}, ledger.Payment{}, err
	}

	src.Ledger, dst.Ledger = srcLedger, dstLedger
	src.refreshPosition()
	dst.refreshPosition()
	return out, in, nil
}

// ApplyStatus sets a status already validated by lifecycle.Machine.
func (d *Document) ApplyStatus(s lifecycle.Status) {
	d.Status = s
}

func (d *Document) acceptsEntries() error {
	if !d.Status.AllowsPayments() {
		return apperror.NewPaymentRejected(apperror.ReasonDocumentCancelled,
			"payments cannot be recorded against a cancelled document").
			WithDetail("documentId", d.ID.String())
	}
	return nil
}

func (d *Document) refreshPosition() {
	d.CarryForwardAdvance = d.Position().CarryForwardAdvance
}
