package lifecycle

import (
	"context"
	"fmt"

	"ordercore/internal/core/apperror"
	appctx "ordercore/internal/core/context"
	"ordercore/internal/core/security"
)

// Actor is who asks for a transition.
type Actor struct {
	UserID      string
	Roles       []string
	Permissions []string
}

// ActorFromContext builds an Actor from the request user.
func ActorFromContext(ctx context.Context) Actor {
	u := appctx.GetUser(ctx)
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.UserID, Roles: u.Roles, Permissions: u.Permissions}
}

// TransitionRequest is a compare-and-swap on status.
type TransitionRequest struct {
	Kind     string
	Current  Status
	Expected Status
	Target   Status
	Actor    Actor
}

// Machine validates transitions against the table and the override guard.
type Machine struct {
	guard security.OverrideGuard
}

// NewMachine creates a Machine. A nil guard falls back to security.PermissionGuard.
func NewMachine(guard security.OverrideGuard) *Machine {
	if guard == nil {
		guard = security.PermissionGuard{}
	}
	return &Machine{guard: guard}
}

// Transition returns the new status or the reason it cannot be reached.
func (m *Machine) Transition(ctx context.Context, req TransitionRequest) (Status, error) {
	if !req.Target.IsValid() {
		return "", apperror.NewValidationKind(apperror.KindInvalidEnum, "target",
			fmt.Sprintf("unknown status %q", req.Target))
	}
	if req.Expected != "" && req.Expected != req.Current {
		return "", apperror.NewStaleState(string(req.Expected), string(req.Current))
	}
	if !req.Current.CanTransitionTo(req.Target) {
		return "", apperror.NewStateTransition(string(req.Current), string(req.Target))
	}

	if RequiresOverride(req.Current, req.Target) {
		if err := m.authorize(ctx, req); err != nil {
			return "", err
		}
	}

	return req.Target, nil
}

// CanOverride reports whether actor passes the guard for from → to.
func (m *Machine) CanOverride(ctx context.Context, kind string, from, to Status, actor Actor) (bool, error) {
	return m.guard.AllowOverride(ctx, security.OverrideRequest{
		UserID:      actor.UserID,
		Roles:       actor.Roles,
		Permissions: actor.Permissions,
		Kind:        kind,
		From:        string(from),
		To:          string(to),
	})
}

// Actions returns ActionsFor(status) with override targets the actor may not use removed.
func (m *Machine) Actions(ctx context.Context, kind string, status Status, actor Actor) (ActionSet, error) {
	set := ActionsFor(status)

	allowed := set.Transitions[:0]
	for _, target := range set.Transitions {
		if RequiresOverride(status, target) {
			ok, err := m.CanOverride(ctx, kind, status, target, actor)
			if err != nil {
				return ActionSet{}, err
			}
			if !ok {
				continue
			}
		}
		allowed = append(allowed, target)
	}
	set.Transitions = allowed

	if len(allowed) == 0 {
		actions := set.Actions[:0]
		for _, a := range set.Actions {
			if a != ActionTransition {
				actions = append(actions, a)
			}
		}
		set.Actions = actions
	}
	return set, nil
}

func (m *Machine) authorize(ctx context.Context, req TransitionRequest) error {
	ok, err := m.CanOverride(ctx, req.Kind, req.Current, req.Target, req.Actor)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !ok {
		return apperror.NewForbidden(
			fmt.Sprintf("override permission required for %s -> %s", req.Current, req.Target)).
			WithDetail("from", string(req.Current)).
			WithDetail("to", string(req.Target))
	}
	return nil
}
