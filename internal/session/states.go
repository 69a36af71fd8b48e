package session

// State is a disc session lifecycle state. Sessions move strictly forward
// through the happy path; Failed branches off the three working states and
// Ejected follows either terminal outcome.
type State string

const (
	StateIdle        State = "idle"
	StateDetected    State = "detected"
	StateClassifying State = "classifying"
	StateExtracting  State = "extracting"
	StateFinalizing  State = "finalizing"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
	StateEjected     State = "ejected"
)

// happyPath orders the forward progression used to reject backward moves.
var happyPath = map[State]int{
	StateIdle:        0,
	StateDetected:    1,
	StateClassifying: 2,
	StateExtracting:  3,
	StateFinalizing:  4,
	StateCompleted:   5,
}

// Terminal reports whether the state ends a session's working life. Ejected
// is terminal too but only ever follows another terminal state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateEjected
}

// canTransition validates a state change. The happy path only steps to the
// next state (stages with nothing to do still pass through, so recorded
// histories stay a prefix of the full chain), Failed branches from the three
// working states, and Ejected follows either terminal outcome.
func canTransition(from, to State) bool {
	switch to {
	case StateFailed:
		return from == StateClassifying || from == StateExtracting || from == StateFinalizing
	case StateEjected:
		return from == StateCompleted || from == StateFailed
	}
	fromIdx, fromOK := happyPath[from]
	toIdx, toOK := happyPath[to]
	return fromOK && toOK && toIdx == fromIdx+1
}
