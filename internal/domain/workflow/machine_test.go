package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
		{StatePaid, true},
		{StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"paid", StatePaid, true},
		{"unknown", State("pendente"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StatePending)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}
	if config != builder.Configure(StatePending) {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_PanicsOnInvalidState(t *testing.T) {
	t.Run("configure", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Configure() should panic on invalid state")
			}
		}()
		NewBuilder().Configure(State("INVALID"))
	})

	t.Run("build", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Build() should panic on invalid initial state")
			}
		}()
		NewBuilder().Build(State("INVALID"))
	})

	t.Run("permit target", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Permit() should panic on invalid target state")
			}
		}()
		NewBuilder().Configure(StatePending).Permit(TriggerApprove, State("INVALID"))
	})
}

func TestRequestLifecycle_Approve(t *testing.T) {
	machine := RequestLifecycle(nil).Build(StatePending)

	if err := machine.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateApproved {
		t.Errorf("State after approve = %v, want %v", machine.State(), StateApproved)
	}
}

func TestRequestLifecycle_Reject(t *testing.T) {
	machine := RequestLifecycle(nil).Build(StatePending)

	if err := machine.Fire(context.Background(), TriggerReject); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateRejected {
		t.Errorf("State after reject = %v, want %v", machine.State(), StateRejected)
	}
}

func TestRequestLifecycle_DecidedRequestsCannotMove(t *testing.T) {
	for _, from := range []State{StateApproved, StateRejected, StatePaid, StateCompleted} {
		for _, trigger := range []Trigger{TriggerApprove, TriggerReject} {
			t.Run(string(from)+"/"+string(trigger), func(t *testing.T) {
				machine := RequestLifecycle(nil).Build(from)

				err := machine.Fire(context.Background(), trigger)
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
				}
				if machine.State() != from {
					t.Errorf("State = %v, want unchanged %v", machine.State(), from)
				}
			})
		}
	}
}

func TestRequestLifecycle_GuardFails(t *testing.T) {
	machine := RequestLifecycle(func(ctx context.Context) bool { return false }).Build(StatePending)

	err := machine.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StatePending {
		t.Errorf("State should remain pending, got %v", machine.State())
	}
}

func TestRestore(t *testing.T) {
	machine, err := Restore("pending", nil)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if !machine.CanFire(TriggerApprove) || !machine.CanFire(TriggerReject) {
		t.Error("pending request should accept approve and reject")
	}

	if _, err := Restore("aprovado", nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Restore() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	pending := RequestLifecycle(nil).Build(StatePending)
	triggers := pending.PermittedTriggers()
	if len(triggers) != 2 || triggers[0] != TriggerApprove || triggers[1] != TriggerReject {
		t.Errorf("PermittedTriggers() = %v, want [APPROVE REJECT]", triggers)
	}

	approved := RequestLifecycle(nil).Build(StateApproved)
	if got := approved.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() on approved = %v, want none", got)
	}
}

func TestStateMachine_Independence(t *testing.T) {
	builder := RequestLifecycle(nil)
	machine1 := builder.Build(StatePending)
	machine2 := builder.Build(StatePending)

	if err := machine1.Fire(context.Background(), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine2.State() != StatePending {
		t.Errorf("machine2 state = %v, want %v", machine2.State(), StatePending)
	}

	// later configuration on the builder does not leak into built machines
	builder.Configure(StateApproved).Permit(TriggerReject, StateRejected)
	if machine1.CanFire(TriggerReject) {
		t.Error("built machine should not see later builder changes")
	}
}
