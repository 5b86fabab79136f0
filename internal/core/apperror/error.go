// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every failure the document engine returns is an AppError so callers can decide messaging.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeStateTransition = "STATE_TRANSITION_ERROR"
	CodePaymentRejected = "PAYMENT_REJECTED"
	CodeLinesLocked     = "LINES_LOCKED"

	// Optimistic locking (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Throttling (429)
	CodeRateLimited = "RATE_LIMITED"
)

// ValidationKind classifies a validation failure.
type ValidationKind string

const (
	KindNegativeValue ValidationKind = "NegativeValue"
	KindOutOfRange    ValidationKind = "OutOfRange"
	KindRequired      ValidationKind = "Required"
	KindInvalidEnum   ValidationKind = "InvalidEnum"
	KindInvalidFormat ValidationKind = "InvalidFormat"
)

// Payment rejection reasons.
const (
	ReasonNonPositiveAmount  = "non_positive_amount"
	ReasonDuplicateKey       = "duplicate_key"
	ReasonDocumentCancelled  = "document_cancelled"
	ReasonAlreadyReversed    = "already_reversed"
	ReasonNotReversible      = "not_reversible"
	ReasonNoAdvance          = "no_advance_available"
	ReasonNothingOutstanding = "nothing_outstanding"
	ReasonCounterparty       = "counterparty_mismatch"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field, from/to, reason, ...)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Detail returns a detail value or nil.
func (e *AppError) Detail(key string) any {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationKind creates a validation error tagged with its kind and field.
func NewValidationKind(kind ValidationKind, field, message string) *AppError {
	return NewValidation(message).
		WithDetail("kind", string(kind)).
		WithDetail("field", field)
}

// NewNegativeValue is returned when a field that must be >= 0 is negative.
func NewNegativeValue(field string) *AppError {
	return NewValidationKind(KindNegativeValue, field, fmt.Sprintf("%s must not be negative", field))
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewStateTransition is returned for a status change missing from the transition table.
func NewStateTransition(from, to string) *AppError {
	return NewBusinessRule(CodeStateTransition,
		fmt.Sprintf("transition from %s to %s is not allowed", from, to)).
		WithDetail("from", from).
		WithDetail("to", to)
}

// NewPaymentRejected is returned when the ledger refuses an entry.
func NewPaymentRejected(reason, message string) *AppError {
	return NewBusinessRule(CodePaymentRejected, message).
		WithDetail("reason", reason)
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please reload and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewStaleState is returned when the caller's view of a status is out of date.
func NewStaleState(expected, actual string) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    fmt.Sprintf("expected status %s but document is %s. Please reload and try again.", expected, actual),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"expected": expected, "actual": actual},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewRateLimited creates a throttling error (429)
func NewRateLimited(limit int64) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    "Too many requests. Please try again later.",
		HTTPStatus: http.StatusTooManyRequests,
		Details:    map[string]any{"limit": limit},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// IsStateTransition checks if error is CodeStateTransition
func IsStateTransition(err error) bool {
	return HasCode(err, CodeStateTransition)
}

// IsPaymentRejected checks if error is CodePaymentRejected
func IsPaymentRejected(err error) bool {
	return HasCode(err, CodePaymentRejected)
}

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool {
	return HasCode(err, CodeValidation)
}

// ValidationKindOf returns the validation kind carried by err, if any.
func ValidationKindOf(err error) ValidationKind {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != CodeValidation {
		return ""
	}
	if k, ok := appErr.Detail("kind").(string); ok {
		return ValidationKind(k)
	}
	return ""
}
