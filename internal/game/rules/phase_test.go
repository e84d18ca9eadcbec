package rules

import (
	"context"
	"errors"
	"testing"
)

func TestPhaseMachineFullTurnCycle(t *testing.T) {
	m := NewPhaseMachine(PhaseInit)
	path := []Phase{
		PhaseRoundStart,
		PhaseTurnStart,
		PhaseMain,
		PhaseTurnEnd,
		PhaseRoundEnd,
		PhaseRoundStart,
		PhaseTurnStart,
		PhaseTurnEnd,
		PhaseTurnStart,
		PhaseMain,
	}
	for i, to := range path {
		if err := m.Enter(context.Background(), to); err != nil {
			t.Fatalf("step %d: unexpected error entering %s: %v", i, to, err)
		}
		if m.Current() != to {
			t.Fatalf("step %d: expected %s, got %s", i, to, m.Current())
		}
	}
}

func TestPhaseMachineVictoryCheck(t *testing.T) {
	phase, err := Transition(PhaseMain, PhaseCheckVictory)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phase != PhaseCheckVictory {
		t.Fatalf("expected CHECK_VICTORY, got %s", phase)
	}

	restored, err := Transition(phase, PhaseMain)
	if err != nil || restored != PhaseMain {
		t.Fatalf("expected restore to MAIN, got %s (%v)", restored, err)
	}

	ended, err := Transition(phase, PhaseEnd)
	if err != nil || ended != PhaseEnd {
		t.Fatalf("expected END, got %s (%v)", ended, err)
	}
	if !ended.Terminal() {
		t.Fatalf("expected END to be terminal")
	}
}

func TestPhaseMachineRejectsIllegalMoves(t *testing.T) {
	cases := []struct {
		from Phase
		to   Phase
	}{
		{PhaseInit, PhaseMain},
		{PhaseMain, PhaseEnd},
		{PhaseEnd, PhaseRoundStart},
		{PhaseEnd, PhaseCheckVictory},
		{PhaseMain, Phase("LUNCH")},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.to)
		if !errors.Is(err, ErrIllegalTransition) {
			t.Errorf("%s -> %s: expected ErrIllegalTransition, got %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Errorf("%s -> %s: expected phase to stay %s, got %s", tc.from, tc.to, tc.from, got)
		}
	}
}

func TestPhaseMachineReenterIsNoop(t *testing.T) {
	m := NewPhaseMachine(PhaseMain)
	if err := m.Enter(context.Background(), PhaseMain); err != nil {
		t.Fatalf("expected re-entering MAIN to succeed, got %v", err)
	}
	if !m.Can(PhaseTurnEnd) {
		t.Fatalf("expected MAIN -> TURN_END to be allowed")
	}
	if m.Can(PhaseRoundEnd) {
		t.Fatalf("expected MAIN -> ROUND_END to be rejected")
	}
}
