package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/id"
	"ordercore/internal/core/types"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/domain/ledger"
	"ordercore/internal/domain/pricing"
)

func money(s string) types.Money { return types.MustMoney(s) }

func storedDoc(charges, staleNet string) *commercial.Document {
	doc := commercial.NewDocument(commercial.KindSalesOrder, "cp-1", pricing.PolicyAfterTax)
	doc.Charges = money(charges)
	doc.NetAmountAfterTax = money(staleNet)
	return doc
}

func referenceRow(docID id.ID, lineNo int) lineRow {
	return lineRow{
		LineID:             id.New(),
		DocumentID:         docID,
		LineNo:             lineNo,
		ItemID:             "sku-1",
		Quantity:           money("10"),
		UnitPrice:          money("100"),
		DiscountPercent:    money("10"),
		TaxPercent:         money("18"),
		WithholdingPercent: money("1"),
		Charges:            types.Zero(),
		Advance:            types.Zero(),
	}
}

func TestAssembleRebuildsTotalsFromInputs(t *testing.T) {
	doc := storedDoc("20", "5")
	paid := ledger.Payment{
		ID:            id.New(),
		DocumentID:    doc.ID,
		Type:          ledger.TypePayment,
		Amount:        money("1200"),
		Mode:          ledger.ModeCash,
		TransactionID: "tx-1",
		Date:          time.Now().UTC(),
	}

	require.NoError(t, assemble([]*commercial.Document{doc}, []lineRow{referenceRow(doc.ID, 1)}, []ledger.Payment{paid}))

	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].Breakdown.LineTotal.Equal(money("1071")), "line total %s", doc.Lines[0].Breakdown.LineTotal)
	assert.True(t, doc.NetAmountAfterTax.Equal(money("1091")), "net %s", doc.NetAmountAfterTax)
	assert.True(t, doc.CarryForwardAdvance.Equal(money("109")), "advance %s", doc.CarryForwardAdvance)
	assert.Equal(t, 1, doc.Ledger.Len())
}

func TestAssembleKeepsExactInputs(t *testing.T) {
	doc := storedDoc("0", "0")
	row := referenceRow(doc.ID, 1)
	row.Quantity = money("1")
	row.UnitPrice = money("0.3333333333")
	row.DiscountPercent = types.Zero()
	row.TaxPercent = money("12.3456789")
	row.WithholdingPercent = types.Zero()

	require.NoError(t, assemble([]*commercial.Document{doc}, []lineRow{row}, nil))

	want := money("0.3333333333").Add(money("0.3333333333").Mul(money("12.3456789")).Shift(-2))
	assert.True(t, doc.NetAmountAfterTax.Equal(want), "net %s want %s", doc.NetAmountAfterTax, want)
}

func TestAssembleDistributesChildren(t *testing.T) {
	a := storedDoc("0", "0")
	b := storedDoc("0", "999")
	rows := []lineRow{referenceRow(a.ID, 1), referenceRow(a.ID, 2)}

	require.NoError(t, assemble([]*commercial.Document{a, b}, rows, nil))

	assert.Len(t, a.Lines, 2)
	assert.Equal(t, 2, a.Lines[1].LineNo)
	assert.True(t, a.NetAmountAfterTax.Equal(money("2142")))
	assert.Empty(t, b.Lines)
	assert.True(t, b.NetAmountAfterTax.IsZero())
	assert.Equal(t, 0, b.Ledger.Len())
}

func TestAssembleRejectsCorruptInputs(t *testing.T) {
	doc := storedDoc("0", "0")
	row := referenceRow(doc.ID, 1)
	row.Quantity = money("-1")

	err := assemble([]*commercial.Document{doc}, []lineRow{row}, nil)
	assert.Error(t, err)
}

func TestLineValuesMatchColumns(t *testing.T) {
	doc := storedDoc("0", "0")
	require.NoError(t, assemble([]*commercial.Document{doc}, []lineRow{referenceRow(doc.ID, 1)}, nil))

	values := lineValues(doc.ID, doc.Lines[0])
	require.Len(t, values, len(lineColumns))
	assert.Equal(t, doc.ID, values[1])
	assert.Equal(t, "sku-1", values[3])
}
