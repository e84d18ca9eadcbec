package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// Phase is the coarse step a combat is in.
type Phase string

const (
	PhaseInit         Phase = "INIT"
	PhaseRoundStart   Phase = "ROUND_START"
	PhaseTurnStart    Phase = "TURN_START"
	PhaseMain         Phase = "MAIN"
	PhaseTurnEnd      Phase = "TURN_END"
	PhaseRoundEnd     Phase = "ROUND_END"
	PhaseCheckVictory Phase = "CHECK_VICTORY"
	PhaseEnd          Phase = "END"
)

var allPhases = []Phase{
	PhaseInit,
	PhaseRoundStart,
	PhaseTurnStart,
	PhaseMain,
	PhaseTurnEnd,
	PhaseRoundEnd,
	PhaseCheckVictory,
	PhaseEnd,
}

func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	for _, known := range allPhases {
		if p == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave p.
func (p Phase) Terminal() bool {
	return p == PhaseEnd
}

// phaseEdges lists, per destination, every phase allowed to move there.
// A victory check may interrupt any live phase and hand control back to it.
var phaseEdges = map[Phase][]Phase{
	PhaseRoundStart:   {PhaseInit, PhaseRoundEnd, PhaseCheckVictory},
	PhaseTurnStart:    {PhaseRoundStart, PhaseTurnEnd, PhaseCheckVictory},
	PhaseMain:         {PhaseTurnStart, PhaseCheckVictory},
	PhaseTurnEnd:      {PhaseMain, PhaseTurnStart, PhaseCheckVictory},
	PhaseRoundEnd:     {PhaseTurnEnd, PhaseCheckVictory},
	PhaseCheckVictory: {PhaseInit, PhaseRoundStart, PhaseTurnStart, PhaseMain, PhaseTurnEnd, PhaseRoundEnd},
	PhaseEnd:          {PhaseCheckVictory},
}

// ErrIllegalTransition is returned when a phase change is not part of the
// combat flow.
var ErrIllegalTransition = errors.New("illegal phase transition")

func eventName(to Phase) string {
	return "enter_" + string(to)
}

func phaseEvents() fsm.Events {
	events := make(fsm.Events, 0, len(phaseEdges))
	for _, to := range allPhases {
		sources, ok := phaseEdges[to]
		if !ok {
			continue
		}
		src := make([]string, len(sources))
		for i, s := range sources {
			src[i] = string(s)
		}
		events = append(events, fsm.EventDesc{Name: eventName(to), Src: src, Dst: string(to)})
	}
	return events
}

// PhaseMachine validates combat phase changes.
type PhaseMachine struct {
	machine *fsm.FSM
}

// NewPhaseMachine returns a machine positioned at the given phase.
func NewPhaseMachine(current Phase) *PhaseMachine {
	return &PhaseMachine{machine: fsm.NewFSM(string(current), phaseEvents(), fsm.Callbacks{})}
}

// Current returns the phase the machine is in.
func (m *PhaseMachine) Current() Phase {
	return Phase(m.machine.Current())
}

// Can reports whether moving to the given phase is legal from here.
func (m *PhaseMachine) Can(to Phase) bool {
	return m.machine.Can(eventName(to))
}

// Enter moves the machine to the given phase. Re-entering the current phase
// is a no-op.
func (m *PhaseMachine) Enter(ctx context.Context, to Phase) error {
	if m.Current() == to {
		return nil
	}
	if !to.Valid() {
		return fmt.Errorf("%w: unknown phase %q", ErrIllegalTransition, to)
	}
	if err := m.machine.Event(ctx, eventName(to)); err != nil {
		return fmt.Errorf("%w: %s -> %s: %v", ErrIllegalTransition, m.Current(), to, err)
	}
	return nil
}

// Transition is a convenience for a single checked phase change.
func Transition(from, to Phase) (Phase, error) {
	m := NewPhaseMachine(from)
	if err := m.Enter(context.Background(), to); err != nil {
		return from, err
	}
	return m.Current(), nil
}
