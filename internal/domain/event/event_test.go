package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypeRequestSubmitted, true},
		{"approved", TypeRequestApproved, true},
		{"rejected", TypeRequestRejected, true},
		{"activation", TypePromoterActivationChange, true},
		{"role", TypeUserRoleChanged, true},
		{"unknown", Type("instance.created"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(TypeRequestApproved, "req-1", "admin-1", map[string]interface{}{
		"kind": "mileage_reimbursement",
	})

	if e.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if e.Type != TypeRequestApproved {
		t.Errorf("Event Type = %v, want %v", e.Type, TypeRequestApproved)
	}
	if e.SubjectID != "req-1" || e.ActorID != "admin-1" {
		t.Errorf("Event subject/actor = %s/%s", e.SubjectID, e.ActorID)
	}
	if e.GetPayloadString("kind") != "mileage_reimbursement" {
		t.Errorf("Payload[kind] = %v", e.Payload["kind"])
	}
	if time.Since(e.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestEvent_WithPayloadDoesNotMutate(t *testing.T) {
	original := NewEvent(TypeRequestSubmitted, "req-1", "user-1", map[string]interface{}{"step": "a"})
	modified := original.WithPayload("active", true)

	if _, ok := original.Payload["active"]; ok {
		t.Error("original event should not be modified")
	}
	if !modified.GetPayloadBool("active") {
		t.Error("modified event should carry the new key")
	}
	if modified.GetPayloadString("step") != "a" || modified.ID != original.ID {
		t.Error("modified event should keep the original fields")
	}
}

func TestEvent_PayloadAccessorsDefault(t *testing.T) {
	e := NewEvent(TypeRequestSubmitted, "req-1", "user-1", map[string]interface{}{"n": 1})

	if e.GetPayloadString("n") != "" {
		t.Error("non-string value should read as empty")
	}
	if e.GetPayloadBool("missing") {
		t.Error("missing key should read as false")
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := NewEvent(TypeRequestSubmitted, "req", "user", nil)
		if ids[e.ID] {
			t.Fatalf("duplicate event ID %s", e.ID)
		}
		ids[e.ID] = true
	}
}
