package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/types"
	"ordercore/internal/domain/pricing"
	"ordercore/internal/infrastructure/http/v1/dto"
)

// moneyFlags maps flag names to LineInput fields.
var moneyFlags = []struct {
	name  string
	usage string
	set   func(*pricing.LineInput, types.Money)
}{
	{"qty", "Quantity", func(in *pricing.LineInput, v types.Money) { in.Quantity = v }},
	{"price", "Unit price", func(in *pricing.LineInput, v types.Money) { in.UnitPrice = v }},
	{"discount", "Discount percent", func(in *pricing.LineInput, v types.Money) { in.DiscountPercent = v }},
	{"tax", "Tax percent", func(in *pricing.LineInput, v types.Money) { in.TaxPercent = v }},
	{"withholding", "Withholding (TCS/TDS) percent", func(in *pricing.LineInput, v types.Money) { in.WithholdingPercent = v }},
	{"charges", "Line charges", func(in *pricing.LineInput, v types.Money) { in.Charges = v }},
	{"advance", "Line advance", func(in *pricing.LineInput, v types.Money) { in.Advance = v }},
}

func newComputeCmd() *cobra.Command {
	compute := &cobra.Command{
		Use:   "compute",
		Short: "Price lines without a server",
	}

	line := &cobra.Command{
		Use:   "line",
		Short: "Compute the breakdown of one line",
		Example: `  # Sales order line with 1% TCS
  ordercli compute line --qty 10 --price 100 --discount 10 --tax 18 --withholding 1

  # Fold charges into the taxable base
  ordercli compute line --qty 1 --price 100 --charges 5 --tax 10 --policy before_tax`,
		Args: cobra.NoArgs,
		RunE: runComputeLine,
	}
	for _, f := range moneyFlags {
		line.Flags().String(f.name, "0", f.usage)
	}
	line.Flags().String("policy", string(pricing.PolicyAfterTax), "Adjustment policy (after_tax, before_tax)")

	compute.AddCommand(line)
	return compute
}

func runComputeLine(cmd *cobra.Command, _ []string) error {
	var in pricing.LineInput
	for _, f := range moneyFlags {
		raw, _ := cmd.Flags().GetString(f.name)
		v, err := types.NewMoneyFromString(raw)
		if err != nil {
			return apperror.NewValidationKind(apperror.KindInvalidFormat, f.name,
				fmt.Sprintf("%q is not a number", raw))
		}
		f.set(&in, v)
	}

	rawPolicy, _ := cmd.Flags().GetString("policy")
	policy, err := pricing.ParsePolicy(rawPolicy)
	if err != nil {
		return err
	}

	b, err := pricing.Compute(in, policy)
	if err != nil {
		return err
	}

	return printJSON(cmd, dto.ComputeLineResponse{
		AdjustmentPolicy:  string(policy),
		BreakdownResponse: dto.FromBreakdown(b),
	})
}
