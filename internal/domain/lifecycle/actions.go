package lifecycle

// Action is a UI-facing capability enabled by a status.
type Action string

const (
	ActionEditLines       Action = "edit_lines"
	ActionRecordPayment   Action = "record_payment"
	ActionReversePayment  Action = "reverse_payment"
	ActionTransferAdvance Action = "transfer_advance"
	ActionTransition      Action = "transition"
)

// ActionSet describes what a document in a given status lets the caller do.
// It drives control enablement only; every operation is re-validated server-side.
type ActionSet struct {
	Status      Status
	Actions     []Action
	Transitions []Status
}

// Has reports whether a is enabled.
func (s ActionSet) Has(a Action) bool {
	for _, x := range s.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// ActionsFor lists the actions of status. Transitions lists every target in the
// table, including override targets the caller may not be allowed to use.
func ActionsFor(status Status) ActionSet {
	set := ActionSet{Status: status, Transitions: status.Targets()}

	if status.AllowsLineEdits() {
		set.Actions = append(set.Actions, ActionEditLines)
	}
	if status.AllowsPayments() {
		set.Actions = append(set.Actions,
			ActionRecordPayment,
			ActionReversePayment,
			ActionTransferAdvance,
		)
	}
	if len(set.Transitions) > 0 {
		set.Actions = append(set.Actions, ActionTransition)
	}
	return set
}
