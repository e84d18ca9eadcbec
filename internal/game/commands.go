package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/google/uuid"
)

// CommandType names a command on the wire and in the journal.
type CommandType string

const (
	CommandStartCombat        CommandType = "START_COMBAT"
	CommandDraw               CommandType = "DRAW"
	CommandPlayCard           CommandType = "PLAY_CARD"
	CommandUseEX              CommandType = "USE_EX"
	CommandHandSwap           CommandType = "HAND_SWAP"
	CommandDiscardToHandLimit CommandType = "DISCARD_TO_HAND_LIMIT"
	CommandEndTurn            CommandType = "END_TURN"
)

// CommandMeta carries the identity and the optimistic concurrency token of
// a command.
type CommandMeta struct {
	ID              uuid.UUID
	ExpectedVersion int64
}

// Meta returns the metadata itself so that embedding it satisfies Command.
func (m CommandMeta) Meta() CommandMeta { return m }

// Command is one player or GM intent against a session.
//
// Validate must not mutate state. Handle runs only after Validate returned
// no errors, mutates state and returns the events it produced in order.
type Command interface {
	Meta() CommandMeta
	Type() CommandType
	Validate(s *GameState, cat *Catalog) []string
	Handle(s *GameState, cat *Catalog) []rules.Event
}

// turnGate runs the checks shared by every command bound to the acting
// player's turn. ok is false when the remaining checks cannot run.
func turnGate(s *GameState, pid PlayerID) (ps *PlayerState, errs []string, ok bool) {
	switch {
	case s.Combat == nil:
		errs = append(errs, "combat not started")
	case s.CombatEnded():
		return nil, []string{"combat ended"}, false
	}

	ps = s.Player(pid)
	if ps == nil {
		return nil, append(errs, "player not found"), false
	}
	if s.Combat != nil && !s.IsTurnOf(pid) {
		errs = append(errs, "not your turn")
	}
	if ps.Pending != nil {
		errs = append(errs, "pending decision exists")
	}
	return ps, errs, true
}

func apError(need, have int) string {
	return fmt.Sprintf("not enough ap (need=%d, have=%d)", need, have)
}
