package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// DiscardToHandLimitCommand resolves a pending discard-to-hand-limit
// decision.
type DiscardToHandLimitCommand struct {
	CommandMeta
	PlayerID   PlayerID
	DiscardIDs []CardInstID
}

func (DiscardToHandLimitCommand) Type() CommandType { return CommandDiscardToHandLimit }

func (c DiscardToHandLimitCommand) Validate(s *GameState, cat *Catalog) []string {
	ps := s.Player(c.PlayerID)
	if ps == nil {
		return []string{"player not found"}
	}
	if s.CombatEnded() {
		return []string{"combat ended"}
	}
	pending, ok := ps.Pending.(DiscardToHandLimit)
	if !ok {
		return []string{"no discard-to-limit pending decision"}
	}

	var errs []string
	limit := effectiveHandLimit(s, cat, ps, pending.Limit)
	need := max(0, len(ps.Hand)-limit)
	if len(c.DiscardIDs) != need {
		errs = append(errs, fmt.Sprintf("discard count mismatch (need=%d)", need))
	}

	seen := make(map[CardInstID]bool, len(c.DiscardIDs))
	for _, id := range c.DiscardIDs {
		if seen[id] {
			errs = append(errs, fmt.Sprintf("duplicate discard id: %s", id))
			continue
		}
		seen[id] = true
		if !ps.InHand(id) {
			errs = append(errs, fmt.Sprintf("card not in hand: %s", id))
			continue
		}
		errs = append(errs, cat.validateDiscard(s, ps, id, DiscardHandLimit)...)
	}
	return errs
}

func (c DiscardToHandLimitCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	ps := s.mustPlayer(c.PlayerID)
	zones := newZoneOps(s, cat, sink)

	for _, id := range c.DiscardIDs {
		if cat.blocksDiscard(s, ps, id, DiscardHandLimit) {
			invariantf("discard of %s blocked during handle", id)
		}
		zones.Move(ps, id, ZoneHand, ZoneGrave, MoveDiscard)
	}

	ps.Pending = nil
	sink.Add(rules.PendingDecisionCleared{PlayerID: string(ps.ID), DecisionType: DecisionDiscardToHandLimit})
	sink.Logf("%s discards %d", ps.ID, len(c.DiscardIDs))
	return sink.Events()
}
