// Package lifecycle holds the document status graph and the transition gate.
package lifecycle

import (
	"fmt"
	"slices"

	"ordercore/internal/core/apperror"
)

// Status is a document status. AdminMode and AnyMode are override scopes
// layered over the business statuses.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusInvoiced  Status = "invoiced"
	StatusCancelled Status = "cancelled"
	StatusAdminMode Status = "admin_mode"
	StatusAnyMode   Status = "any_mode"
)

// All lists every status in workflow order.
var All = []Status{
	StatusDraft,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusInvoiced,
	StatusCancelled,
	StatusAdminMode,
	StatusAnyMode,
}

// transitions is the allow-list per source status.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusConfirmed, StatusCancelled, StatusAdminMode, StatusAnyMode},
	StatusConfirmed: {StatusShipped, StatusCancelled, StatusAdminMode, StatusAnyMode},
	StatusShipped:   {StatusDelivered, StatusCancelled, StatusAdminMode, StatusAnyMode},
	StatusDelivered: {StatusInvoiced, StatusAdminMode, StatusAnyMode},
	StatusInvoiced:  {StatusAdminMode, StatusAnyMode},
	StatusCancelled: {StatusAdminMode, StatusAnyMode},
	StatusAdminMode: {StatusDraft, StatusAnyMode},
	StatusAnyMode: {
		StatusDraft, StatusConfirmed, StatusShipped, StatusDelivered,
		StatusInvoiced, StatusCancelled, StatusAdminMode,
	},
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", apperror.NewValidationKind(apperror.KindInvalidEnum, "status",
			fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Targets returns the statuses reachable from s.
func (s Status) Targets() []Status {
	return slices.Clone(transitions[s])
}

// CanTransitionTo reports whether target is in the allow-list of s.
// Self-transitions are never allowed.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

// IsTerminal reports whether s ends the normal workflow.
func (s Status) IsTerminal() bool {
	return s == StatusInvoiced || s == StatusCancelled
}

// IsOverride reports whether s is an override scope.
func (s Status) IsOverride() bool {
	return s == StatusAdminMode || s == StatusAnyMode
}

// AllowsLineEdits reports whether lines and document charges may change.
func (s Status) AllowsLineEdits() bool {
	return s == StatusDraft || s.IsOverride()
}

// AllowsPayments reports whether ledger entries may be appended.
func (s Status) AllowsPayments() bool {
	return s.IsValid() && s != StatusCancelled
}

// RequiresOverride reports whether moving from s to target needs the override guard.
func RequiresOverride(from, to Status) bool {
	return to.IsOverride() || from == StatusAnyMode
}

// Table returns a copy of the transition graph.
func Table() map[Status][]Status {
	out := make(map[Status][]Status, len(transitions))
	for from, to := range transitions {
		out[from] = slices.Clone(to)
	}
	return out
}

// Labels maps statuses to display names.
type Labels map[Status]string

// DefaultLabels are used for outbound documents.
var DefaultLabels = Labels{
	StatusDraft:     "Draft",
	StatusConfirmed: "Confirmed",
	StatusShipped:   "Shipped",
	StatusDelivered: "Delivered",
	StatusInvoiced:  "Invoiced",
	StatusCancelled: "Cancelled",
	StatusAdminMode: "Admin Mode",
	StatusAnyMode:   "Any Mode",
}

// InboundLabels rename fulfilment statuses for purchasing documents.
var InboundLabels = DefaultLabels.with(Labels{
	StatusShipped:   "Picked",
	StatusDelivered: "Received",
})

func (l Labels) with(overrides Labels) Labels {
	out := make(Labels, len(l))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Of returns the label of s, falling back to the raw status.
func (l Labels) Of(s Status) string {
	if v, ok := l[s]; ok {
		return v
	}
	return string(s)
}
