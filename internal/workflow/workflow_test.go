package workflow

import "testing"

func TestTransitionTable_Totality(t *testing.T) {
	known := map[State]bool{
		StatePending:       true,
		StateProcessing:    true,
		StateAwaitingHuman: true,
		StateApproved:      true,
		StateRejected:      true,
	}

	for from, successors := range allowedTransitions {
		if !known[from] {
			t.Fatalf("transition table lists unknown state %q", from)
		}
		for _, to := range successors {
			if !known[to] {
				t.Fatalf("transition %s -> %s targets unknown state", from, to)
			}
		}
	}

	for state := range known {
		if _, ok := allowedTransitions[state]; !ok {
			t.Fatalf("state %q is missing from the transition table", state)
		}
	}
}

func TestTransitionTable_TerminalStatesAcceptNothing(t *testing.T) {
	for _, terminal := range []State{StateApproved, StateRejected} {
		if !terminal.Terminal() {
			t.Fatalf("%s must report Terminal()", terminal)
		}
		if len(allowedTransitions[terminal]) != 0 {
			t.Fatalf("%s must have no successors", terminal)
		}
	}
	for _, live := range []State{StatePending, StateProcessing, StateAwaitingHuman} {
		if live.Terminal() {
			t.Fatalf("%s must not report Terminal()", live)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to State
		allowed  bool
	}{
		{StatePending, StateProcessing, true},
		{StateProcessing, StateApproved, true},
		{StateProcessing, StateAwaitingHuman, true},
		{StateProcessing, StateRejected, true},
		{StateAwaitingHuman, StateApproved, true},
		{StateAwaitingHuman, StateRejected, true},
		{StatePending, StateApproved, false},
		{StateApproved, StateRejected, false},
		{StateRejected, StateAwaitingHuman, false},
		{StateAwaitingHuman, StateProcessing, false},
		{StateProcessing, StatePending, false},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("canTransition(%s, %s) = %v, expected %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}
