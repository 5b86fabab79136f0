package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordercore/internal/core/apperror"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusDraft:     {StatusConfirmed, StatusCancelled, StatusAdminMode, StatusAnyMode},
		StatusConfirmed: {StatusShipped, StatusCancelled, StatusAdminMode, StatusAnyMode},
		StatusShipped:   {StatusDelivered, StatusCancelled, StatusAdminMode, StatusAnyMode},
		StatusDelivered: {StatusInvoiced, StatusAdminMode, StatusAnyMode},
		StatusInvoiced:  {StatusAdminMode, StatusAnyMode},
		StatusCancelled: {StatusAdminMode, StatusAnyMode},
		StatusAdminMode: {StatusDraft, StatusAnyMode},
	}

	for from, targets := range allowed {
		for _, to := range All {
			want := false
			for _, x := range targets {
				if x == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	for _, to := range All {
		assert.Equal(t, to != StatusAnyMode, StatusAnyMode.CanTransitionTo(to), "any_mode -> %s", to)
	}
}

func TestSelfTransitionsRejected(t *testing.T) {
	for _, s := range All {
		assert.False(t, s.CanTransitionTo(s), s)
	}
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusInvoiced.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusDelivered.IsTerminal())

	for _, s := range []Status{StatusDraft, StatusAdminMode, StatusAnyMode} {
		assert.True(t, s.AllowsLineEdits(), s)
	}
	for _, s := range []Status{StatusConfirmed, StatusShipped, StatusDelivered, StatusInvoiced, StatusCancelled} {
		assert.False(t, s.AllowsLineEdits(), s)
	}

	assert.False(t, StatusCancelled.AllowsPayments())
	assert.True(t, StatusInvoiced.AllowsPayments())
	assert.False(t, Status("bogus").AllowsPayments())
}

func TestRequiresOverride(t *testing.T) {
	assert.True(t, RequiresOverride(StatusDraft, StatusAdminMode))
	assert.True(t, RequiresOverride(StatusInvoiced, StatusAnyMode))
	assert.True(t, RequiresOverride(StatusAnyMode, StatusDraft))
	assert.False(t, RequiresOverride(StatusAdminMode, StatusDraft))
	assert.False(t, RequiresOverride(StatusDraft, StatusConfirmed))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("Shipped")
	assert.Equal(t, apperror.KindInvalidEnum, apperror.ValidationKindOf(err))
}

func TestTableIsACopy(t *testing.T) {
	table := Table()
	table[StatusDraft] = append(table[StatusDraft], StatusInvoiced)

	assert.False(t, StatusDraft.CanTransitionTo(StatusInvoiced))
	assert.Len(t, table, len(All))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Shipped", DefaultLabels.Of(StatusShipped))
	assert.Equal(t, "Picked", InboundLabels.Of(StatusShipped))
	assert.Equal(t, "Received", InboundLabels.Of(StatusDelivered))
	assert.Equal(t, "Draft", InboundLabels.Of(StatusDraft))
	assert.Equal(t, "mystery", DefaultLabels.Of(Status("mystery")))
}

func TestActionsFor(t *testing.T) {
	draft := ActionsFor(StatusDraft)
	assert.True(t, draft.Has(ActionEditLines))
	assert.True(t, draft.Has(ActionRecordPayment))
	assert.True(t, draft.Has(ActionTransition))

	confirmed := ActionsFor(StatusConfirmed)
	assert.False(t, confirmed.Has(ActionEditLines))
	assert.True(t, confirmed.Has(ActionRecordPayment))

	cancelled := ActionsFor(StatusCancelled)
	assert.False(t, cancelled.Has(ActionRecordPayment))
	assert.ElementsMatch(t, []Status{StatusAdminMode, StatusAnyMode}, cancelled.Transitions)
}
