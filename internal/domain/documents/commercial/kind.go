// Package commercial provides sales orders, purchase orders, debit notes and
// invoices: one aggregate combining pricing, ledger and lifecycle.
package commercial

import (
	"fmt"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/numerator"
	"ordercore/internal/domain/lifecycle"
	"ordercore/internal/domain/pricing"
)

// Kind is the document type.
type Kind string

const (
	KindSalesOrder    Kind = "SalesOrder"
	KindPurchaseOrder Kind = "PurchaseOrder"
	KindDebitNote     Kind = "DebitNote"
	KindInvoice       Kind = "Invoice"
)

// Side is whether the counterparty owes us or we owe them.
type Side string

const (
	SideReceivable Side = "receivable"
	SidePayable    Side = "payable"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", apperror.NewValidationKind(apperror.KindInvalidEnum, "kind",
			fmt.Sprintf("unknown document kind %q", s))
	}
	return k, nil
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindSalesOrder, KindPurchaseOrder, KindDebitNote, KindInvoice:
		return true
	}
	return false
}

// Side returns the ledger side of k.
func (k Kind) Side() Side {
	switch k {
	case KindPurchaseOrder, KindDebitNote:
		return SidePayable
	default:
		return SideReceivable
	}
}

// NumberPrefix returns the document number prefix.
func (k Kind) NumberPrefix() string {
	switch k {
	case KindSalesOrder:
		return "SO"
	case KindPurchaseOrder:
		return "PO"
	case KindDebitNote:
		return "DN"
	case KindInvoice:
		return "INV"
	}
	return "DOC"
}

// NumeratorStrategy returns how numbers are allocated for k.
// Invoices and debit notes are accounting documents and must be gapless.
func (k Kind) NumeratorStrategy() numerator.Strategy {
	switch k {
	case KindInvoice, KindDebitNote:
		return numerator.StrategyStrict
	default:
		return numerator.StrategyCached
	}
}

// Labels returns the status labels shown for k.
func (k Kind) Labels() lifecycle.Labels {
	if k.Side() == SidePayable {
		return lifecycle.InboundLabels
	}
	return lifecycle.DefaultLabels
}

// PolicySet maps each kind to its adjustment policy.
type PolicySet map[Kind]pricing.AdjustmentPolicy

// DefaultPolicySet applies charges and advance after tax on the selling side
// and inside the taxable base on the purchasing side.
func DefaultPolicySet() PolicySet {
	return PolicySet{
		KindSalesOrder:    pricing.PolicyAfterTax,
		KindInvoice:       pricing.PolicyAfterTax,
		KindPurchaseOrder: pricing.PolicyBeforeTax,
		KindDebitNote:     pricing.PolicyBeforeTax,
	}
}

// For returns the policy of k, defaulting to after_tax.
func (p PolicySet) For(k Kind) pricing.AdjustmentPolicy {
	if policy, ok := p[k]; ok && policy != "" {
		return policy
	}
	return pricing.PolicyAfterTax
}
