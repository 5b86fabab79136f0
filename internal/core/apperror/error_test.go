package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNegativeValue(t *testing.T) {
	err := NewNegativeValue("quantity")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "quantity", err.Detail("field"))
	assert.Equal(t, KindNegativeValue, ValidationKindOf(err))
}

func TestNewStateTransition(t *testing.T) {
	err := NewStateTransition("draft", "invoiced")

	assert.True(t, IsStateTransition(err))
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "draft", err.Detail("from"))
	assert.Equal(t, "invoiced", err.Detail("to"))
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("record payment: %w", NewPaymentRejected(ReasonDuplicateKey, "duplicate"))

	assert.True(t, IsPaymentRejected(wrapped))
	assert.False(t, IsConcurrentModification(wrapped))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ReasonDuplicateKey, appErr.Detail("reason"))
}

func TestPlainErrorsMapTo500(t *testing.T) {
	err := errors.New("boom")

	assert.False(t, IsAppError(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
	assert.Equal(t, ValidationKind(""), ValidationKindOf(err))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewStaleStateIsConcurrencyError(t *testing.T) {
	err := NewStaleState("draft", "confirmed")

	assert.True(t, IsConcurrentModification(err))
	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, "confirmed", err.Detail("actual"))
}
