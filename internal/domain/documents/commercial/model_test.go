package commercial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/lifecycle"
	"ordercore/internal/domain/pricing"
)

func money(s string) types.Money { return types.MustMoney(s) }

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, money(want).Equal(got), "want %s, got %s", want, got)
}

func referenceLine() LineDraft {
	return LineDraft{
		ItemID: "widget",
		Input: pricing.LineInput{
			Quantity:           money("10"),
			UnitPrice:          money("100"),
			DiscountPercent:    money("10"),
			TaxPercent:         money("18"),
			WithholdingPercent: money("1"),
		},
	}
}

func flatLine(amount string) LineDraft {
	return LineDraft{ItemID: "item", Input: pricing.LineInput{Quantity: money("1"), UnitPrice: money(amount)}}
}

func newPriced(t *testing.T, kind Kind, counterparty string, drafts ...LineDraft) *Document {
	t.Helper()
	doc := NewDocument(kind, counterparty, DefaultPolicySet().For(kind))
	require.NoError(t, doc.ReplaceLines(drafts, types.Zero()))
	return doc
}

func pay(t *testing.T, doc *Document, amount, key string) ledger.Payment {
	t.Helper()
	p, err := doc.RecordPayment(ledger.Receipt{Amount: money(amount), Mode: ledger.ModeCash, TransactionID: key})
	require.NoError(t, err)
	return p
}

func TestNewDocumentStartsInDraft(t *testing.T) {
	doc := NewDocument(KindInvoice, "  cp-1 ", pricing.PolicyAfterTax)

	assert.Equal(t, lifecycle.StatusDraft, doc.Status)
	assert.Equal(t, "cp-1", doc.CounterpartyID)
	assert.Equal(t, 1, doc.Version)
	assert.Zero(t, doc.Ledger.Len())
	assert.True(t, doc.NetAmountAfterTax.IsZero())
}

func TestReplaceLinesReferenceScenario(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", referenceLine())

	require.Len(t, doc.Lines, 1)
	line := doc.Lines[0]
	assert.Equal(t, 1, line.LineNo)
	assert.False(t, id.IsNil(line.LineID))
	assertMoney(t, "1000", line.Breakdown.Subtotal)
	assertMoney(t, "100", line.Breakdown.DiscountAmount)
	assertMoney(t, "900", line.Breakdown.AmountBeforeTax)
	assertMoney(t, "162", line.Breakdown.TaxAmount)
	assertMoney(t, "9", line.Breakdown.WithholdingAmount)
	assertMoney(t, "1071", line.Breakdown.LineTotal)
	assertMoney(t, "1071", doc.NetAmountAfterTax)
	assert.Equal(t, 1, doc.Summary.TotalLines)
}

func TestReplaceLinesAddsDocumentCharges(t *testing.T) {
	doc := NewDocument(KindSalesOrder, "cp-1", pricing.PolicyAfterTax)
	require.NoError(t, doc.ReplaceLines([]LineDraft{flatLine("100"), flatLine("50")}, money("25")))

	assertMoney(t, "150", doc.Summary.TotalLineAmount)
	assertMoney(t, "175", doc.NetAmountAfterTax)
	assertMoney(t, "25", doc.Charges)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
}

func TestReplaceLinesIsAtomic(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", referenceLine())
	before := *doc

	bad := flatLine("10")
	bad.Input.Quantity = money("-1")
	err := doc.ReplaceLines([]LineDraft{flatLine("5"), bad}, money("3"))

	require.Error(t, err)
	assert.Equal(t, apperror.KindNegativeValue, apperror.ValidationKindOf(err))
	assert.Equal(t, before.Lines, doc.Lines)
	assertMoney(t, "1071", doc.NetAmountAfterTax)
	assert.True(t, doc.Charges.IsZero())
}

func TestReplaceLinesValidation(t *testing.T) {
	doc := NewDocument(KindSalesOrder, "cp-1", pricing.PolicyAfterTax)

	err := doc.ReplaceLines(nil, types.Zero())
	assert.Equal(t, apperror.KindRequired, apperror.ValidationKindOf(err))

	err = doc.ReplaceLines([]LineDraft{{ItemID: " "}}, types.Zero())
	assert.Equal(t, apperror.KindRequired, apperror.ValidationKindOf(err))

	err = doc.ReplaceLines([]LineDraft{flatLine("1")}, money("-1"))
	assert.Equal(t, apperror.KindNegativeValue, apperror.ValidationKindOf(err))
}

func TestReplaceLinesLockedOutsideEditableStatuses(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", flatLine("10"))

	doc.ApplyStatus(lifecycle.StatusConfirmed)
	err := doc.ReplaceLines([]LineDraft{flatLine("20")}, types.Zero())
	assert.True(t, apperror.HasCode(err, apperror.CodeLinesLocked))

	doc.ApplyStatus(lifecycle.StatusAdminMode)
	assert.NoError(t, doc.ReplaceLines([]LineDraft{flatLine("20")}, types.Zero()))
	assertMoney(t, "20", doc.NetAmountAfterTax)
}

func TestPartialPaymentsSettleDocument(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", referenceLine())

	pay(t, doc, "500", "tx-1")
	pay(t, doc, "571", "tx-2")

	pos := doc.Position()
	assert.Equal(t, "0.00", pos.NetReceivable.StringFixed(2))
	assert.Equal(t, "0.00", pos.CarryForwardAdvance.StringFixed(2))
}

func TestOverpaymentCarriesForward(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", flatLine("1000"))

	pay(t, doc, "1200", "tx-1")

	pos := doc.Position()
	assert.Equal(t, "0.00", pos.NetReceivable.StringFixed(2))
	assert.Equal(t, "200.00", pos.CarryForwardAdvance.StringFixed(2))
	assertMoney(t, "200", doc.CarryForwardAdvance)
}

func TestPaymentOnCancelledRejected(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", flatLine("100"))
	p := pay(t, doc, "10", "tx-1")
	doc.ApplyStatus(lifecycle.StatusCancelled)

	_, err := doc.RecordPayment(ledger.Receipt{Amount: money("10"), Mode: ledger.ModeCash, TransactionID: "tx-2"})
	require.True(t, apperror.IsPaymentRejected(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.ReasonDocumentCancelled, appErr.Detail("reason"))

	_, err = doc.ReversePayment(p.ID, "rev-1", time.Now())
	assert.True(t, apperror.IsPaymentRejected(err))
	assert.Equal(t, 1, doc.Ledger.Len())
}

func TestReversePaymentRestoresBalance(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp-1", flatLine("100"))
	p := pay(t, doc, "150", "tx-1")
	assertMoney(t, "50", doc.CarryForwardAdvance)

	rev, err := doc.ReversePayment(p.ID, "rev-1", time.Time{})
	require.NoError(t, err)

	assertMoney(t, "-150", rev.Amount)
	assertMoney(t, "100", doc.Position().NetReceivable)
	assert.True(t, doc.CarryForwardAdvance.IsZero())
}

func TestTransferAdvance(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("moves the smaller of credit and outstanding", func(t *testing.T) {
		src := newPriced(t, KindSalesOrder, "acme", flatLine("1000"))
		dst := newPriced(t, KindInvoice, "acme", flatLine("150"))
		pay(t, src, "1200", "tx-1")

		out, in, err := TransferAdvance(src, dst, "move-1", types.Zero(), date)
		require.NoError(t, err)

		assertMoney(t, "-150", out.Amount)
		assertMoney(t, "150", in.Amount)
		assert.Equal(t, ledger.TypeTransferOut, out.Type)
		assert.Equal(t, ledger.TypeTransferIn, in.Type)
		assertMoney(t, "50", src.CarryForwardAdvance)
		assert.True(t, dst.Position().NetReceivable.IsZero())
	})

	t.Run("explicit amount", func(t *testing.T) {
		src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
		dst := newPriced(t, KindInvoice, "acme", flatLine("500"))
		pay(t, src, "400", "tx-1")

		_, _, err := TransferAdvance(src, dst, "move-1", money("120"), date)
		require.NoError(t, err)
		assertMoney(t, "180", src.CarryForwardAdvance)
		assertMoney(t, "380", dst.Position().NetReceivable)
	})

	rejections := []struct {
		name   string
		setup  func(t *testing.T) (*Document, *Document)
		amount string
		reason string
	}{
		{
			name: "different counterparty",
			setup: func(t *testing.T) (*Document, *Document) {
				src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
				pay(t, src, "200", "tx-1")
				return src, newPriced(t, KindInvoice, "globex", flatLine("100"))
			},
			reason: apperror.ReasonCounterparty,
		},
		{
			name: "different side",
			setup: func(t *testing.T) (*Document, *Document) {
				src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
				pay(t, src, "200", "tx-1")
				return src, newPriced(t, KindPurchaseOrder, "acme", flatLine("100"))
			},
			reason: apperror.ReasonCounterparty,
		},
		{
			name: "no credit on source",
			setup: func(t *testing.T) (*Document, *Document) {
				return newPriced(t, KindSalesOrder, "acme", flatLine("100")),
					newPriced(t, KindInvoice, "acme", flatLine("100"))
			},
			reason: apperror.ReasonNoAdvance,
		},
		{
			name: "target settled",
			setup: func(t *testing.T) (*Document, *Document) {
				src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
				pay(t, src, "200", "tx-1")
				dst := newPriced(t, KindInvoice, "acme", flatLine("100"))
				pay(t, dst, "100", "tx-2")
				return src, dst
			},
			reason: apperror.ReasonNothingOutstanding,
		},
		{
			name: "amount above outstanding",
			setup: func(t *testing.T) (*Document, *Document) {
				src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
				pay(t, src, "500", "tx-1")
				return src, newPriced(t, KindInvoice, "acme", flatLine("100"))
			},
			amount: "150",
			reason: apperror.ReasonNothingOutstanding,
		},
		{
			name: "cancelled target",
			setup: func(t *testing.T) (*Document, *Document) {
				src := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
				pay(t, src, "200", "tx-1")
				dst := newPriced(t, KindInvoice, "acme", flatLine("100"))
				dst.ApplyStatus(lifecycle.StatusCancelled)
				return src, dst
			},
			reason: apperror.ReasonDocumentCancelled,
		},
	}
	for _, tc := range rejections {
		t.Run(tc.name, func(t *testing.T) {
			src, dst := tc.setup(t)
			srcLen, dstLen := src.Ledger.Len(), dst.Ledger.Len()

			amount := types.Zero()
			if tc.amount != "" {
				amount = money(tc.amount)
			}
			_, _, err := TransferAdvance(src, dst, "move-1", amount, date)

			require.True(t, apperror.IsPaymentRejected(err), "got %v", err)
			appErr, _ := apperror.AsAppError(err)
			assert.Equal(t, tc.reason, appErr.Detail("reason"))
			assert.Equal(t, srcLen, src.Ledger.Len())
			assert.Equal(t, dstLen, dst.Ledger.Len())
		})
	}

	t.Run("same document", func(t *testing.T) {
		doc := newPriced(t, KindSalesOrder, "acme", flatLine("100"))
		_, _, err := TransferAdvance(doc, doc, "move-1", types.Zero(), date)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestStatusLabelDependsOnKind(t *testing.T) {
	so := newPriced(t, KindSalesOrder, "cp", flatLine("1"))
	po := newPriced(t, KindPurchaseOrder, "cp", flatLine("1"))
	so.ApplyStatus(lifecycle.StatusShipped)
	po.ApplyStatus(lifecycle.StatusShipped)

	assert.Equal(t, "Shipped", so.StatusLabel())
	assert.Equal(t, "Picked", po.StatusLabel())
}

func TestRecalculateUsesStoredInputs(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp", referenceLine())
	doc.Lines[0].Breakdown = pricing.Breakdown{}
	doc.NetAmountAfterTax = types.Zero()

	require.NoError(t, doc.Recalculate())
	assertMoney(t, "1071", doc.NetAmountAfterTax)
}

func TestValidate(t *testing.T) {
	doc := newPriced(t, KindSalesOrder, "cp", flatLine("1"))
	require.NoError(t, doc.Validate(context.Background()))

	doc.CounterpartyID = ""
	assert.Equal(t, apperror.KindRequired, apperror.ValidationKindOf(doc.Validate(context.Background())))
}

func TestDefaultPolicies(t *testing.T) {
	p := DefaultPolicySet()
	assert.Equal(t, pricing.PolicyAfterTax, p.For(KindSalesOrder))
	assert.Equal(t, pricing.PolicyAfterTax, p.For(KindInvoice))
	assert.Equal(t, pricing.PolicyBeforeTax, p.For(KindPurchaseOrder))
	assert.Equal(t, pricing.PolicyBeforeTax, p.For(KindDebitNote))
}
