package workflow

// State is a lifecycle state of an expense request
type State string

const (
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateRejected  State = "rejected"
	StatePaid      State = "paid"
	StateCompleted State = "completed"
)

var validStates = map[State]bool{
	StatePending:   true,
	StateApproved:  true,
	StateRejected:  true,
	StatePaid:      true,
	StateCompleted: true,
}

// Every state other than pending is final as far as the portal is concerned.
// Paid and completed are recognized but nothing in the portal moves a request there.
var terminalStates = map[State]bool{
	StateApproved:  true,
	StateRejected:  true,
	StatePaid:      true,
	StateCompleted: true,
}

// IsTerminal returns true if no trigger can leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known request state
func (s State) IsValid() bool {
	return validStates[s]
}
