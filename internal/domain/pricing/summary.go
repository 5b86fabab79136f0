package pricing

import (
	"ordercore/internal/core/apperror"
	"ordercore/internal/core/types"
)

// Summary rolls up the breakdowns of a document.
type Summary struct {
	TotalLines          int
	TotalNetAmount      types.Money
	TotalDiscountAmount types.Money
	TotalTaxAmount      types.Money
	TotalWithholdingTax types.Money
	TotalLineAmount     types.Money
}

// Aggregate sums breakdowns field by field.
func Aggregate(lines []Breakdown) Summary {
	s := Summary{
		TotalLines:          len(lines),
		TotalNetAmount:      types.Zero(),
		TotalDiscountAmount: types.Zero(),
		TotalTaxAmount:      types.Zero(),
		TotalWithholdingTax: types.Zero(),
		TotalLineAmount:     types.Zero(),
	}
	for _, b := range lines {
		s.TotalNetAmount = s.TotalNetAmount.Add(b.AmountBeforeTax)
		s.TotalDiscountAmount = s.TotalDiscountAmount.Add(b.DiscountAmount)
		s.TotalTaxAmount = s.TotalTaxAmount.Add(b.TaxAmount)
		s.TotalWithholdingTax = s.TotalWithholdingTax.Add(b.WithholdingAmount)
		s.TotalLineAmount = s.TotalLineAmount.Add(b.LineTotal)
	}
	return s
}

// Result is the outcome of computing a whole document.
type Result struct {
	Lines             []Breakdown
	Summary           Summary
	NetAmountAfterTax types.Money
}

// ComputeDocument computes every line, the summary and the net amount
// (line totals plus document-level charges). Nothing is returned on failure.
func ComputeDocument(inputs []LineInput, charges types.Money, policy AdjustmentPolicy) (Result, error) {
	if charges.IsNegative() {
		return Result{}, apperror.NewNegativeValue("charges")
	}

	lines := make([]Breakdown, len(inputs))
	for i, in := range inputs {
		b, err := Compute(in, policy)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return Result{}, appErr.WithDetail("line", i+1)
			}
			return Result{}, err
		}
		lines[i] = b
	}

	summary := Aggregate(lines)
	return Result{
		Lines:             lines,
		Summary:           summary,
		NetAmountAfterTax: summary.TotalLineAmount.Add(charges),
	}, nil
}
