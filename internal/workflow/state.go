package workflow

// State represents a submission's position in the form lifecycle
type State string

const (
	StateIdle       State = "IDLE"
	StateCollecting State = "COLLECTING"
	StateValidating State = "VALIDATING"
	StatePersisting State = "PERSISTING"
	StateRendering  State = "RENDERING"
	StateComplete   State = "COMPLETE"
	StateFailed     State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:       true,
	StateCollecting: true,
	StateValidating: true,
	StatePersisting: true,
	StateRendering:  true,
	StateComplete:   true,
	StateFailed:     true,
}

var terminalStates = map[State]bool{
	StateComplete: true,
	StateFailed:   true,
}

// IsTerminal returns true if the state ends a submission's pipeline run
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid submission state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
