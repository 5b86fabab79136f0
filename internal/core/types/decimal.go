// Package types provides common type aliases and utilities.
package types

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Percent is a rate expressed in percent (18 means 18%).
type Percent = decimal.Decimal

// OutputScale is the number of fractional digits used when amounts leave the engine.
const OutputScale int32 = 2

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// PercentOf returns base * rate / 100 without rounding.
func PercentOf(base Money, rate Percent) Money {
	return base.Mul(rate).Shift(-2)
}

// ClampZero returns v, or zero when v is negative.
func ClampZero(v Money) Money {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// RoundOutput rounds v half away from zero to OutputScale digits.
func RoundOutput(v Money) Money {
	return v.Round(OutputScale)
}

// Coerce converts a raw boundary value into a decimal.
// Missing, empty, NaN and non-numeric input yields zero.
func Coerce(raw any) Money {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
		return decimal.Zero
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case bool:
		return decimal.Zero
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return decimal.Zero
	}
	return fromFloat(f)
}

func fromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
