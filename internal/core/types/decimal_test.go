package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, "0"},
		{"empty string", "", "0"},
		{"blank string", "   ", "0"},
		{"garbage", "abc", "0"},
		{"numeric string", "12.50", "12.5"},
		{"negative string", "-3", "-3"},
		{"int", 7, "7"},
		{"int64", int64(42), "42"},
		{"float", 0.1, "0.1"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
		{"bool true", true, "0"},
		{"bool false", false, "0"},
		{"json number", json.Number("99.95"), "99.95"},
		{"decimal", decimal.RequireFromString("1.005"), "1.005"},
		{"struct", struct{}{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.raw)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPercentOfKeepsPrecision(t *testing.T) {
	got := PercentOf(MustMoney("33.33"), MustMoney("7.5"))
	assert.Equal(t, "2.499750", got.StringFixed(6))

	got = PercentOf(MustMoney("1.000000002000000001"), MustMoney("10"))
	assert.Equal(t, "0.1000000002000000001", got.String())
}

func TestClampZero(t *testing.T) {
	assert.True(t, ClampZero(MustMoney("-0.01")).IsZero())
	assert.True(t, ClampZero(MustMoney("5")).Equal(MustMoney("5")))
}

func TestRoundOutput(t *testing.T) {
	assert.Equal(t, "1.01", RoundOutput(MustMoney("1.005")).StringFixed(2))
	assert.Equal(t, "-1.01", RoundOutput(MustMoney("-1.005")).StringFixed(2))
}
