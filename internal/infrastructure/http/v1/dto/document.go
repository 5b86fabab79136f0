package dto

import (
	"encoding/json"
	"strings"
	"time"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/domain"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
	"ordercore/internal/domain/pricing"
)

// lineAliases maps canonical line fields to the older names clients still send.
var lineAliases = map[string][]string{
	"quantity":           {"qty"},
	"unitPrice":          {"rate", "price"},
	"discountPercent":    {"discount"},
	"taxPercent":         {"tax"},
	"withholdingPercent": {"tcs", "tds"},
}

// normalizeAliases rewrites legacy field names to canonical ones.
// A canonical field always wins over its aliases.
func normalizeAliases(b []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for canonical, aliases := range lineAliases {
		if _, ok := fields[canonical]; ok {
			continue
		}
		for _, alias := range aliases {
			if v, ok := fields[alias]; ok {
				fields[canonical] = v
				break
			}
		}
	}
	return json.Marshal(fields)
}

// --- Request DTOs ---

// LineInputRequest carries the numeric inputs of one line.
type LineInputRequest struct {
	Quantity           Number `json:"quantity"`
	UnitPrice          Number `json:"unitPrice"`
	DiscountPercent    Number `json:"discountPercent"`
	TaxPercent         Number `json:"taxPercent"`
	WithholdingPercent Number `json:"withholdingPercent"`
	Charges            Number `json:"charges"`
	Advance            Number `json:"advance"`
}

// UnmarshalJSON accepts legacy field aliases.
func (r *LineInputRequest) UnmarshalJSON(b []byte) error {
	normalized, err := normalizeAliases(b)
	if err != nil {
		return err
	}
	type plain LineInputRequest
	var p plain
	if err := json.Unmarshal(normalized, &p); err != nil {
		return err
	}
	*r = LineInputRequest(p)
	return nil
}

// ToInput converts r into a pricing input.
func (r LineInputRequest) ToInput() pricing.LineInput {
	return pricing.LineInput{
		Quantity:           r.Quantity.Value,
		UnitPrice:          r.UnitPrice.Value,
		DiscountPercent:    r.DiscountPercent.Value,
		TaxPercent:         r.TaxPercent.Value,
		WithholdingPercent: r.WithholdingPercent.Value,
		Charges:            r.Charges.Value,
		Advance:            r.Advance.Value,
	}
}

// LineRequest is one document line.
type LineRequest struct {
	LineID string `json:"lineId" binding:"omitempty,uuid"`
	ItemID string `json:"itemId" binding:"required"`
	LineInputRequest
}

// UnmarshalJSON decodes the identity fields and the aliased numeric inputs.
func (r *LineRequest) UnmarshalJSON(b []byte) error {
	var ident struct {
		LineID string `json:"lineId"`
		ItemID string `json:"itemId"`
	}
	if err := json.Unmarshal(b, &ident); err != nil {
		return err
	}
	if err := r.LineInputRequest.UnmarshalJSON(b); err != nil {
		return err
	}
	r.LineID = ident.LineID
	r.ItemID = ident.ItemID
	return nil
}

// ToDraft converts r into a line draft.
func (r LineRequest) ToDraft() (commercial.LineDraft, error) {
	draft := commercial.LineDraft{
		ItemID: r.ItemID,
		Input:  r.ToInput(),
	}
	if r.LineID != "" {
		lineID, err := id.Parse(r.LineID)
		if err != nil {
			return commercial.LineDraft{}, apperror.NewValidationKind(apperror.KindInvalidFormat, "lineId", "invalid line id")
		}
		draft.LineID = lineID
	}
	return draft, nil
}

func toDrafts(lines []LineRequest) ([]commercial.LineDraft, error) {
	drafts := make([]commercial.LineDraft, len(lines))
	for i, l := range lines {
		d, err := l.ToDraft()
		if err != nil {
			return nil, err
		}
		drafts[i] = d
	}
	return drafts, nil
}

// CreateDocumentRequest creates a Draft document.
type CreateDocumentRequest struct {
	Kind           string        `json:"kind" binding:"required,document_kind"`
	CounterpartyID string        `json:"counterpartyId" binding:"required"`
	Lines          []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Charges        Number        `json:"charges"`
}

// ToCommand converts the request into a create command.
func (r *CreateDocumentRequest) ToCommand() (commercial.CreateCommand, error) {
	drafts, err := toDrafts(r.Lines)
	if err != nil {
		return commercial.CreateCommand{}, err
	}
	return commercial.CreateCommand{
		Kind:           commercial.Kind(r.Kind),
		CounterpartyID: r.CounterpartyID,
		Lines:          drafts,
		Charges:        r.Charges.Value,
	}, nil
}

// UpdateDocumentRequest replaces lines and charges.
type UpdateDocumentRequest struct {
	Version int           `json:"version" binding:"required,min=1"`
	Lines   []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Charges Number        `json:"charges"`
}

// ToCommand converts the request into an update command.
func (r *UpdateDocumentRequest) ToCommand() (commercial.UpdateCommand, error) {
	drafts, err := toDrafts(r.Lines)
	if err != nil {
		return commercial.UpdateCommand{}, err
	}
	return commercial.UpdateCommand{
		Version: r.Version,
		Lines:   drafts,
		Charges: r.Charges.Value,
	}, nil
}

// TransitionRequest is a status compare-and-swap.
type TransitionRequest struct {
	Target         string `json:"target" binding:"required,document_status"`
	ExpectedStatus string `json:"expectedStatus" binding:"required,document_status"`
	Version        int    `json:"version" binding:"required,min=1"`
}

// ToCommand converts the request into a transition command.
func (r *TransitionRequest) ToCommand() commercial.TransitionCommand {
	return commercial.TransitionCommand{
		Version:        r.Version,
		ExpectedStatus: lifecycle.Status(r.ExpectedStatus),
		Target:         lifecycle.Status(r.Target),
	}
}

// ListDocumentsQuery are the list query parameters.
type ListDocumentsQuery struct {
	Kind           string `form:"kind" binding:"omitempty,document_kind"`
	Status         string `form:"status" binding:"omitempty,document_status"`
	CounterpartyID string `form:"counterpartyId"`
	Search         string `form:"search"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a repository filter.
func (q *ListDocumentsQuery) ToFilter() commercial.ListFilter {
	base := domain.DefaultListFilter()
	base.Search = strings.TrimSpace(q.Search)
	if q.OrderBy != "" {
		base.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		base.Limit = q.Limit
	}
	base.Offset = q.Offset

	f := commercial.ListFilter{ListFilter: base, CounterpartyID: q.CounterpartyID}
	if q.Kind != "" {
		k := commercial.Kind(q.Kind)
		f.Kind = &k
	}
	if q.Status != "" {
		s := lifecycle.Status(q.Status)
		f.Status = &s
	}
	return f
}

// --- Response DTOs ---

// LineResponse is a priced line.
type LineResponse struct {
	LineID             string      `json:"lineId"`
	LineNo             int         `json:"lineNo"`
	ItemID             string      `json:"itemId"`
	Quantity           json.Number `json:"quantity"`
	UnitPrice          json.Number `json:"unitPrice"`
	DiscountPercent    json.Number `json:"discountPercent"`
	TaxPercent         json.Number `json:"taxPercent"`
	WithholdingPercent json.Number `json:"withholdingPercent"`
	Charges            json.Number `json:"charges"`
	Advance            json.Number `json:"advance"`
	BreakdownResponse
}

// BreakdownResponse is the computed part of a line.
type BreakdownResponse struct {
	Subtotal          json.Number `json:"subtotal"`
	DiscountAmount    json.Number `json:"discountAmount"`
	AmountBeforeTax   json.Number `json:"amountBeforeTax"`
	TaxAmount         json.Number `json:"taxAmount"`
	WithholdingAmount json.Number `json:"withholdingAmount"`
	LineTotal         json.Number `json:"lineTotal"`
}

// FromBreakdown renders b.
func FromBreakdown(b pricing.Breakdown) BreakdownResponse {
	return BreakdownResponse{
		Subtotal:          Money(b.Subtotal),
		DiscountAmount:    Money(b.DiscountAmount),
		AmountBeforeTax:   Money(b.AmountBeforeTax),
		TaxAmount:         Money(b.TaxAmount),
		WithholdingAmount: Money(b.WithholdingAmount),
		LineTotal:         Money(b.LineTotal),
	}
}

// FromLine renders l.
func FromLine(l commercial.Line) LineResponse {
	return LineResponse{
		LineID:             l.LineID.String(),
		LineNo:             l.LineNo,
		ItemID:             l.ItemID,
		Quantity:           Decimal(l.Input.Quantity),
		UnitPrice:          Decimal(l.Input.UnitPrice),
		DiscountPercent:    Decimal(l.Input.DiscountPercent),
		TaxPercent:         Decimal(l.Input.TaxPercent),
		WithholdingPercent: Decimal(l.Input.WithholdingPercent),
		Charges:            Money(l.Input.Charges),
		Advance:            Money(l.Input.Advance),
		BreakdownResponse:  FromBreakdown(l.Breakdown),
	}
}

// SummaryResponse is the document roll-up.
type SummaryResponse struct {
	TotalLines          int         `json:"totalLines"`
	TotalNetAmount      json.Number `json:"totalNetAmount"`
	TotalDiscountAmount json.Number `json:"totalDiscountAmount"`
	TotalTaxAmount      json.Number `json:"totalTaxAmount"`
	TotalWithholdingTax json.Number `json:"totalWithholdingTax"`
	TotalLineAmount     json.Number `json:"totalLineAmount"`
}

// FromSummary renders s.
func FromSummary(s pricing.Summary) SummaryResponse {
	return SummaryResponse{
		TotalLines:          s.TotalLines,
		TotalNetAmount:      Money(s.TotalNetAmount),
		TotalDiscountAmount: Money(s.TotalDiscountAmount),
		TotalTaxAmount:      Money(s.TotalTaxAmount),
		TotalWithholdingTax: Money(s.TotalWithholdingTax),
		TotalLineAmount:     Money(s.TotalLineAmount),
	}
}

// DocumentResponse is the full document record.
type DocumentResponse struct {
	DocumentID          string            `json:"documentId"`
	Number              string            `json:"number"`
	Kind                string            `json:"kind"`
	CounterpartyID      string            `json:"counterpartyId"`
	Status              string            `json:"status"`
	StatusLabel         string            `json:"statusLabel"`
	AdjustmentPolicy    string            `json:"adjustmentPolicy"`
	Version             int               `json:"version"`
	Lines               []LineResponse    `json:"lines"`
	Payments            []PaymentResponse `json:"payments"`
	Charges             json.Number       `json:"charges"`
	NetAmountAfterTax   json.Number       `json:"netAmountAfterTax"`
	Paid                json.Number       `json:"paid"`
	NetReceivable       json.Number       `json:"netReceivable"`
	CarryForwardAdvance json.Number       `json:"carryForwardAdvance"`
	Summary             SummaryResponse   `json:"summary"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
	CreatedBy           string            `json:"createdBy,omitempty"`
	UpdatedBy           string            `json:"updatedBy,omitempty"`
}

// FromDocument renders d.
func FromDocument(d *commercial.Document) DocumentResponse {
	pos := d.Position()

	lines := make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = FromLine(l)
	}

	entries := d.Ledger.Entries()
	payments := make([]PaymentResponse, len(entries))
	for i, p := range entries {
		payments[i] = FromPayment(p)
	}

	return DocumentResponse{
		DocumentID:          d.ID.String(),
		Number:              d.Number,
		Kind:                string(d.Kind),
		CounterpartyID:      d.CounterpartyID,
		Status:              string(d.Status),
		StatusLabel:         d.StatusLabel(),
		AdjustmentPolicy:    string(d.Policy),
		Version:             d.Version,
		Lines:               lines,
		Payments:            payments,
		Charges:             Money(d.Charges),
		NetAmountAfterTax:   Money(pos.NetAmountAfterTax),
		Paid:                Money(pos.Paid),
		NetReceivable:       Money(pos.NetReceivable),
		CarryForwardAdvance: Money(pos.CarryForwardAdvance),
		Summary:             FromSummary(d.Summary),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
		CreatedBy:           d.CreatedBy,
		UpdatedBy:           d.UpdatedBy,
	}
}

// DocumentListItem is the list projection of a document.
type DocumentListItem struct {
	DocumentID          string      `json:"documentId"`
	Number              string      `json:"number"`
	Kind                string      `json:"kind"`
	CounterpartyID      string      `json:"counterpartyId"`
	Status              string      `json:"status"`
	StatusLabel         string      `json:"statusLabel"`
	Version             int         `json:"version"`
	NetAmountAfterTax   json.Number `json:"netAmountAfterTax"`
	CarryForwardAdvance json.Number `json:"carryForwardAdvance"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

// FromDocumentListItem renders the list projection of d.
func FromDocumentListItem(d *commercial.Document) DocumentListItem {
	return DocumentListItem{
		DocumentID:          d.ID.String(),
		Number:              d.Number,
		Kind:                string(d.Kind),
		CounterpartyID:      d.CounterpartyID,
		Status:              string(d.Status),
		StatusLabel:         d.StatusLabel(),
		Version:             d.Version,
		NetAmountAfterTax:   Money(d.NetAmountAfterTax),
		CarryForwardAdvance: Money(d.CarryForwardAdvance),
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

// TransitionOption is one reachable status.
type TransitionOption struct {
	Target           string `json:"target"`
	Label            string `json:"label"`
	RequiresOverride bool   `json:"requiresOverride"`
}

// ActionsResponse lists what the caller may do with a document.
type ActionsResponse struct {
	DocumentID  string             `json:"documentId"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"statusLabel"`
	Version     int                `json:"version"`
	Actions     []string           `json:"actions"`
	Transitions []TransitionOption `json:"transitions"`
}

// FromActions renders set for d.
func FromActions(d *commercial.Document, set lifecycle.ActionSet) ActionsResponse {
	labels := d.Kind.Labels()

	actions := make([]string, len(set.Actions))
	for i, a := range set.Actions {
		actions[i] = string(a)
	}
	options := make([]TransitionOption, len(set.Transitions))
	for i, t := range set.Transitions {
		options[i] = TransitionOption{
			Target:           string(t),
			Label:            labels.Of(t),
			RequiresOverride: lifecycle.RequiresOverride(set.Status, t),
		}
	}

	return ActionsResponse{
		DocumentID:  d.ID.String(),
		Status:      string(d.Status),
		StatusLabel: d.StatusLabel(),
		Version:     d.Version,
		Actions:     actions,
		Transitions: options,
	}
}

// TransitionTableResponse is the whole lifecycle graph.
type TransitionTableResponse struct {
	Statuses    []string            `json:"statuses"`
	Transitions map[string][]string `json:"transitions"`
	Labels      map[string]string   `json:"labels"`
}

// FromTransitionTable renders the lifecycle graph with labels for kind.
func FromTransitionTable(kind commercial.Kind) TransitionTableResponse {
	labels := kind.Labels()
	resp := TransitionTableResponse{
		Statuses:    make([]string, len(lifecycle.All)),
		Transitions: make(map[string][]string, len(lifecycle.All)),
		Labels:      make(map[string]string, len(lifecycle.All)),
	}
	for i, s := range lifecycle.All {
		resp.Statuses[i] = string(s)
		resp.Labels[string(s)] = labels.Of(s)
	}
	for from, targets := range lifecycle.Table() {
		out := make([]string, len(targets))
		for i, t := range targets {
			out[i] = string(t)
		}
		resp.Transitions[string(from)] = out
	}
	return resp
}

// PaymentResponse is one ledger entry.
type PaymentResponse struct {
	PaymentID         string      `json:"paymentId"`
	Type              string      `json:"type"`
	Amount            json.Number `json:"amount"`
	Mode              string      `json:"mode"`
	TransactionID     string      `json:"transactionId"`
	Date              time.Time   `json:"date"`
	ReversalOf        *string     `json:"reversalOf,omitempty"`
	CounterDocumentID *string     `json:"counterDocumentId,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	CreatedBy         string      `json:"createdBy,omitempty"`
}

// FromPayment renders p.
func FromPayment(p ledger.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:         p.ID.String(),
		Type:              string(p.Type),
		Amount:            Money(p.Amount),
		Mode:              string(p.Mode),
		TransactionID:     p.TransactionID,
		Date:              p.Date,
		ReversalOf:        idString(p.ReversalOf),
		CounterDocumentID: idString(p.CounterDocumentID),
		CreatedAt:         p.CreatedAt,
		CreatedBy:         p.CreatedBy,
	}
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
