package game

import "github.com/dueltower/duel-tower-server/internal/game/rules"

// EndTurnCommand ends the acting player's turn and runs the flow up to the
// next player's turn.
type EndTurnCommand struct {
	CommandMeta
	PlayerID PlayerID
}

func (EndTurnCommand) Type() CommandType { return CommandEndTurn }

func (c EndTurnCommand) Validate(s *GameState, _ *Catalog) []string {
	_, errs, _ := turnGate(s, c.PlayerID)
	return errs
}

func (c EndTurnCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	newCombatFlow(s, cat, sink).endTurn()
	cs := s.Combat
	sink.Add(rules.TurnAdvanced{ActorKey: ActorKey(cs.CurrentActor()), Round: cs.Round})
	return sink.Events()
}
