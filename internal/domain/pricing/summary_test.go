package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
)

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	assert.Equal(t, 0, s.TotalLines)
	assert.True(t, s.TotalLineAmount.IsZero())
	assert.True(t, s.TotalNetAmount.IsZero())
}

func TestAggregateSumsEveryField(t *testing.T) {
	lines := []Breakdown{
		{Subtotal: d("1000"), DiscountAmount: d("100"), AmountBeforeTax: d("900"), TaxAmount: d("162"), WithholdingAmount: d("9"), LineTotal: d("1071")},
		{Subtotal: d("50"), DiscountAmount: d("0"), AmountBeforeTax: d("50"), TaxAmount: d("2.5"), WithholdingAmount: d("0.5"), LineTotal: d("53")},
	}

	s := Aggregate(lines)
	assert.Equal(t, 2, s.TotalLines)
	assertMoney(t, "950", s.TotalNetAmount, "totalNetAmount")
	assertMoney(t, "100", s.TotalDiscountAmount, "totalDiscountAmount")
	assertMoney(t, "164.5", s.TotalTaxAmount, "totalTaxAmount")
	assertMoney(t, "9.5", s.TotalWithholdingTax, "totalWithholdingTax")
	assertMoney(t, "1124", s.TotalLineAmount, "totalLineAmount")
}

func TestComputeDocumentAddsDocumentCharges(t *testing.T) {
	res, err := ComputeDocument([]LineInput{
		{Quantity: d("10"), UnitPrice: d("100"), DiscountPercent: d("10"), TaxPercent: d("18"), WithholdingPercent: d("1")},
		{Quantity: d("1"), UnitPrice: d("29")},
	}, d("25"), PolicyAfterTax)
	require.NoError(t, err)

	require.Len(t, res.Lines, 2)
	assertMoney(t, "1100", res.Summary.TotalLineAmount, "totalLineAmount")
	assertMoney(t, "1125", res.NetAmountAfterTax, "netAmountAfterTax")
}

func TestComputeDocumentReportsFailingLine(t *testing.T) {
	_, err := ComputeDocument([]LineInput{
		{Quantity: d("1"), UnitPrice: d("1")},
		{Quantity: d("-2")},
	}, d("0"), PolicyAfterTax)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNegativeValue, apperror.ValidationKindOf(err))
	assert.Equal(t, 2, appErr.Detail("line"))
}

func TestComputeDocumentRejectsNegativeCharges(t *testing.T) {
	_, err := ComputeDocument(nil, d("-1"), PolicyAfterTax)
	assert.Equal(t, apperror.KindNegativeValue, apperror.ValidationKindOf(err))
}
