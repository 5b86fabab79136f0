// Package pricing computes line breakdowns and document summaries.
// All arithmetic is exact decimal; rounding happens only at the output boundary.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/types"
)

// AdjustmentPolicy decides where charges and advance enter the line total.
type AdjustmentPolicy string

const (
	// PolicyAfterTax adds charges and subtracts advance after tax and withholding.
	PolicyAfterTax AdjustmentPolicy = "after_tax"

	// PolicyBeforeTax folds charges and advance into the taxable base.
	PolicyBeforeTax AdjustmentPolicy = "before_tax"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (AdjustmentPolicy, error) {
	switch p := AdjustmentPolicy(s); p {
	case PolicyAfterTax, PolicyBeforeTax:
		return p, nil
	}
	return "", apperror.NewValidationKind(apperror.KindInvalidEnum, "adjustmentPolicy",
		fmt.Sprintf("unknown adjustment policy %q", s))
}

// LineInput holds the user-supplied figures of one line.
type LineInput struct {
	Quantity           types.Money
	UnitPrice          types.Money
	DiscountPercent    types.Percent
	TaxPercent         types.Percent
	WithholdingPercent types.Percent
	Charges            types.Money
	Advance            types.Money
}

// Breakdown is the computed result for one line.
type Breakdown struct {
	Subtotal          types.Money
	DiscountAmount    types.Money
	AmountBeforeTax   types.Money
	TaxAmount         types.Money
	WithholdingAmount types.Money
	LineTotal         types.Money
}

var hundred = decimal.NewFromInt(100)

// Validate checks the input ranges.
func (in LineInput) Validate() error {
	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"quantity", in.Quantity},
		{"unitPrice", in.UnitPrice},
		{"taxPercent", in.TaxPercent},
		{"withholdingPercent", in.WithholdingPercent},
		{"charges", in.Charges},
		{"advance", in.Advance},
	}
	for _, f := range nonNegative {
		if f.value.IsNegative() {
			return apperror.NewNegativeValue(f.field)
		}
	}

	if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
		return apperror.NewValidationKind(apperror.KindOutOfRange, "discountPercent",
			"discountPercent must be between 0 and 100").
			WithDetail("min", 0).
			WithDetail("max", 100)
	}

	return nil
}

// Compute returns the breakdown of one line under policy.
func Compute(in LineInput, policy AdjustmentPolicy) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}

	var b Breakdown
	b.Subtotal = in.Quantity.Mul(in.UnitPrice)
	b.DiscountAmount = types.PercentOf(b.Subtotal, in.DiscountPercent)
	b.AmountBeforeTax = types.ClampZero(b.Subtotal.Sub(b.DiscountAmount))

	switch policy {
	case PolicyAfterTax, "":
		b.TaxAmount = types.PercentOf(b.AmountBeforeTax, in.TaxPercent)
		b.WithholdingAmount = types.PercentOf(b.AmountBeforeTax, in.WithholdingPercent)
		b.LineTotal = b.AmountBeforeTax.
			Add(b.TaxAmount).
			Add(b.WithholdingAmount).
			Add(in.Charges).
			Sub(in.Advance)
	case PolicyBeforeTax:
		taxable := types.ClampZero(b.AmountBeforeTax.Add(in.Charges).Sub(in.Advance))
		b.TaxAmount = types.PercentOf(taxable, in.TaxPercent)
		b.WithholdingAmount = types.PercentOf(taxable, in.WithholdingPercent)
		b.LineTotal = taxable.Add(b.TaxAmount).Add(b.WithholdingAmount)
	default:
		_, err := ParsePolicy(string(policy))
		return Breakdown{}, err
	}

	return b, nil
}
