package commercial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryActionOf(t *testing.T) {
	tests := map[string]HistoryAction{
		EventDocumentCreated:      HistoryCreate,
		EventDocumentUpdated:      HistoryUpdate,
		EventDocumentTransitioned: HistoryTransition,
		EventPaymentRecorded:      HistoryPayment,
		EventPaymentReversed:      HistoryReversal,
		EventAdvanceTransferred:   HistoryTransfer,
		"SomethingElse":           HistoryUpdate,
	}
	for event, want := range tests {
		assert.Equal(t, want, HistoryActionOf(event), event)
	}
}
