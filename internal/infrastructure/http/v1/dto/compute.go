package dto

import (
	"encoding/json"

	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/pricing"
)

// ComputeLineRequest prices one line without storing anything.
type ComputeLineRequest struct {
	LineInputRequest
	AdjustmentPolicy string `json:"adjustmentPolicy"`
}

// UnmarshalJSON decodes the policy and the aliased numeric inputs.
func (r *ComputeLineRequest) UnmarshalJSON(b []byte) error {
	var head struct {
		AdjustmentPolicy string `json:"adjustmentPolicy"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if err := r.LineInputRequest.UnmarshalJSON(b); err != nil {
		return err
	}
	r.AdjustmentPolicy = head.AdjustmentPolicy
	return nil
}

// Policy returns the requested policy, defaulting to after_tax.
func (r *ComputeLineRequest) Policy() (pricing.AdjustmentPolicy, error) {
	if r.AdjustmentPolicy == "" {
		return pricing.PolicyAfterTax, nil
	}
	return pricing.ParsePolicy(r.AdjustmentPolicy)
}

// ComputeDocumentRequest prices a set of lines without storing anything.
// The policy comes from adjustmentPolicy, then from kind, then defaults to after_tax.
type ComputeDocumentRequest struct {
	Kind             string             `json:"kind" binding:"omitempty,document_kind"`
	AdjustmentPolicy string             `json:"adjustmentPolicy"`
	Lines            []LineInputRequest `json:"lines" binding:"required,min=1"`
	Charges          Number             `json:"charges"`
}

// Inputs returns the pricing inputs of every line.
func (r *ComputeDocumentRequest) Inputs() []pricing.LineInput {
	inputs := make([]pricing.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		inputs[i] = l.ToInput()
	}
	return inputs
}

// Policy resolves the policy against policies.
func (r *ComputeDocumentRequest) Policy(policies commercial.PolicySet) (pricing.AdjustmentPolicy, error) {
	if r.AdjustmentPolicy != "" {
		return pricing.ParsePolicy(r.AdjustmentPolicy)
	}
	if r.Kind != "" {
		return policies.For(commercial.Kind(r.Kind)), nil
	}
	return pricing.PolicyAfterTax, nil
}

// ComputeLineResponse is a priced line.
type ComputeLineResponse struct {
	AdjustmentPolicy string `json:"adjustmentPolicy"`
	BreakdownResponse
}

// ComputeDocumentResponse is a priced document.
type ComputeDocumentResponse struct {
	AdjustmentPolicy  string              `json:"adjustmentPolicy"`
	Lines             []BreakdownResponse `json:"lines"`
	Summary           SummaryResponse     `json:"summary"`
	Charges           json.Number         `json:"charges"`
	NetAmountAfterTax json.Number         `json:"netAmountAfterTax"`
}

// FromResult renders res.
func FromResult(policy pricing.AdjustmentPolicy, charges Number, res pricing.Result) ComputeDocumentResponse {
	lines := make([]BreakdownResponse, len(res.Lines))
	for i, b := range res.Lines {
		lines[i] = FromBreakdown(b)
	}
	return ComputeDocumentResponse{
		AdjustmentPolicy:  string(policy),
		Lines:             lines,
		Summary:           FromSummary(res.Summary),
		Charges:           Money(charges.Value),
		NetAmountAfterTax: Money(res.NetAmountAfterTax),
	}
}
