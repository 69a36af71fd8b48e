package session

import "testing"

func TestCanTransitionHappyPath(t *testing.T) {
	chain := []State{StateIdle, StateDetected, StateClassifying, StateExtracting, StateFinalizing, StateCompleted}
	for i := 0; i < len(chain)-1; i++ {
		if !canTransition(chain[i], chain[i+1]) {
			t.Errorf("canTransition(%s, %s) = false, want true", chain[i], chain[i+1])
		}
	}
}

func TestCanTransitionRejectsSkipsAndReversals(t *testing.T) {
	cases := []struct {
		from, to State
	}{
		{StateIdle, StateClassifying},
		{StateIdle, StateCompleted},
		{StateDetected, StateExtracting},
		{StateClassifying, StateCompleted},
		{StateExtracting, StateDetected},
		{StateCompleted, StateIdle},
		{StateCompleted, StateExtracting},
		{StateFailed, StateExtracting},
	}
	for _, tc := range cases {
		if canTransition(tc.from, tc.to) {
			t.Errorf("canTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestCanTransitionFailureBranches(t *testing.T) {
	for _, from := range []State{StateClassifying, StateExtracting, StateFinalizing} {
		if !canTransition(from, StateFailed) {
			t.Errorf("canTransition(%s, failed) = false, want true", from)
		}
	}
	for _, from := range []State{StateIdle, StateDetected, StateCompleted, StateEjected, StateFailed} {
		if canTransition(from, StateFailed) {
			t.Errorf("canTransition(%s, failed) = true, want false", from)
		}
	}
}

func TestCanTransitionEjectFollowsTerminals(t *testing.T) {
	for _, from := range []State{StateCompleted, StateFailed} {
		if !canTransition(from, StateEjected) {
			t.Errorf("canTransition(%s, ejected) = false, want true", from)
		}
	}
	for _, from := range []State{StateIdle, StateExtracting, StateFinalizing, StateEjected} {
		if canTransition(from, StateEjected) {
			t.Errorf("canTransition(%s, ejected) = true, want false", from)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateIdle:        false,
		StateDetected:    false,
		StateClassifying: false,
		StateExtracting:  false,
		StateFinalizing:  false,
		StateCompleted:   true,
		StateFailed:      true,
		StateEjected:     true,
	}
	for state, want := range terminal {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}
