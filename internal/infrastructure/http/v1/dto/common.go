// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"ordercore/internal/core/types"
	"ordercore/internal/domain"
)

// --- Numbers ---

// Number is a numeric input that accepts a JSON number or a numeric string.
// Missing, empty and non-numeric input decodes to zero.
type Number struct {
	Value   types.Money
	Present bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	n.Present = raw != nil
	if num, ok := raw.(json.Number); ok {
		raw = num.String()
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		n.Present = false
	}
	n.Value = types.Coerce(raw)
	return nil
}

// Money renders v rounded to two decimals as a JSON number.
func Money(v types.Money) json.Number {
	return json.Number(types.RoundOutput(v).StringFixed(types.OutputScale))
}

// Decimal renders v unrounded as a JSON number.
func Decimal(v types.Money) json.Number {
	return json.Number(v.String())
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page with fn.
func NewListResponse[E, T any](res domain.ListResult[E], fn func(E) T) ListResponse[T] {
	items := make([]T, len(res.Items))
	for i, e := range res.Items {
		items[i] = fn(e)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
