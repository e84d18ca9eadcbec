package game

import "github.com/dueltower/duel-tower-server/internal/game/rules"

// effectiveHandLimit raises the base hand limit to the number of cards in
// hand that cannot be discarded, so a hand-limit decision is always
// satisfiable.
func effectiveHandLimit(s *GameState, cat *Catalog, ps *PlayerState, base int) int {
	immovable := 0
	for _, id := range ps.Hand {
		if cat.blocksDiscard(s, ps, id, DiscardHandLimit) {
			immovable++
		}
	}
	return max(base, immovable)
}

// ensureHandLimit raises a discard decision when the hand is over the
// effective limit and nothing else is pending.
func ensureHandLimit(s *GameState, cat *Catalog, ps *PlayerState, sink *rules.Sink) {
	limit := effectiveHandLimit(s, cat, ps, ps.HandLimit())
	if len(ps.Hand) <= limit || ps.Pending != nil {
		return
	}
	ps.Pending = DiscardToHandLimit{Reason: reasonHandLimitExceeded, Limit: limit}
	sink.Add(rules.PendingDecisionSet{
		PlayerID:     string(ps.ID),
		DecisionType: DecisionDiscardToHandLimit,
		Reason:       reasonHandLimitExceeded,
	})
}
