package workflow

import "context"

// StateMachine tracks the current state of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target state when allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state
	PermittedTriggers() []Trigger
}

// RequestLifecycle returns the builder for the expense request lifecycle.
// Only pending requests can be decided; approved and rejected are final and there is no un-approve.
func RequestLifecycle(guard GuardFunc) StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		PermitIf(TriggerApprove, StateApproved, guard).
		PermitIf(TriggerReject, StateRejected, guard)
	return b
}

// Restore builds a lifecycle machine positioned at a stored state
func Restore(status string, guard GuardFunc) (StateMachine, error) {
	s := State(status)
	if !s.IsValid() {
		return nil, ErrInvalidState
	}
	return RequestLifecycle(guard).Build(s), nil
}
