package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// HandSwapCommand discards one card from hand and draws one, once per
// turn. Discarding a token draws nothing.
type HandSwapCommand struct {
	CommandMeta
	PlayerID  PlayerID
	DiscardID CardInstID
}

func (HandSwapCommand) Type() CommandType { return CommandHandSwap }

func (c HandSwapCommand) Validate(s *GameState, cat *Catalog) []string {
	ps, errs, ok := turnGate(s, c.PlayerID)
	if !ok {
		return errs
	}
	if ps.SwappedThisTurn {
		errs = append(errs, "hand swap already used this turn")
	}
	if c.DiscardID == "" {
		return append(errs, "discardId is required")
	}
	if !ps.InHand(c.DiscardID) {
		return append(errs, fmt.Sprintf("card not in hand: %s", c.DiscardID))
	}
	if s.Card(c.DiscardID) == nil {
		return append(errs, fmt.Sprintf("card instance missing: %s", c.DiscardID))
	}
	return append(errs, cat.validateDiscard(s, ps, c.DiscardID, DiscardHandSwap)...)
}

func (c HandSwapCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	ps := s.mustPlayer(c.PlayerID)
	token := cat.Definition(s.mustCard(c.DiscardID).DefID).Token
	zones := newZoneOps(s, cat, sink)

	zones.Move(ps, c.DiscardID, ZoneHand, ZoneGrave, MoveDiscard)
	if !token {
		zones.DrawWithRefill(ps, 1)
	}
	ps.SwappedThisTurn = true
	ensureHandLimit(s, cat, ps, sink)

	if token {
		sink.Logf("%s hand swaps (discard 1, token)", ps.ID)
	} else {
		sink.Logf("%s hand swaps (discard 1, draw 1)", ps.ID)
	}
	return sink.Events()
}
