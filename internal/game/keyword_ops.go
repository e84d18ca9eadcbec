package game

import "fmt"

// KeywordRuntime is one active keyword on a card: its id and parameter.
type KeywordRuntime struct {
	ID    string
	Param int
}

// DiscardReason says why a card is being discarded.
type DiscardReason string

const (
	DiscardHandSwap  DiscardReason = "HAND_SWAP"
	DiscardHandLimit DiscardReason = "HAND_LIMIT"
	DiscardEffect    DiscardReason = "EFFECT"
)

// MoveReason says why a card is changing zones.
type MoveReason string

const (
	MovePlay    MoveReason = "PLAY"
	MoveDestroy MoveReason = "DESTROY"
	MoveDiscard MoveReason = "DISCARD"
	MoveOther   MoveReason = "OTHER"
)

// EXActivationReason says why the activatable flag of an EX card is being
// recomputed.
type EXActivationReason string

const (
	EXUsed EXActivationReason = "USED_EX"
)

// DiscardCtx describes a discard being checked.
type DiscardCtx struct {
	Player *PlayerState
	CardID CardInstID
	Reason DiscardReason
}

// MoveCtx describes a zone move about to happen.
type MoveCtx struct {
	Owner  *PlayerState
	CardID CardInstID
	From   Zone
	To     Zone
	Reason MoveReason
}

// EXActivationCtx describes an EX card whose activatable flag is being
// recomputed.
type EXActivationCtx struct {
	Owner  *PlayerState
	CardID CardInstID
	EXCard bool
	Reason EXActivationReason
	Round  int
}

// eachKeyword calls fn for every active keyword of card id that has a
// registered effect, in keyword id order. fn returns false to stop.
func (c *Catalog) eachKeyword(s *GameState, id CardInstID, fn func(rt KeywordRuntime, eff KeywordEffect) bool) {
	ci := s.Card(id)
	if ci == nil {
		return
	}
	def := c.Definition(ci.DefID)
	for _, kw := range def.ActiveKeywords() {
		eff, ok := c.KeywordEffect(kw)
		if !ok {
			continue
		}
		if !fn(KeywordRuntime{ID: kw, Param: def.Keyword(kw)}, eff) {
			return
		}
	}
}

// blocksDiscard is the cheap form of validateDiscard.
func (c *Catalog) blocksDiscard(s *GameState, ps *PlayerState, id CardInstID, reason DiscardReason) bool {
	blocked := false
	dc := DiscardCtx{Player: ps, CardID: id, Reason: reason}
	c.eachKeyword(s, id, func(rt KeywordRuntime, eff KeywordEffect) bool {
		blocked = eff.BlocksDiscard(rt, dc)
		return !blocked
	})
	return blocked
}

// validateDiscard collects every keyword objection to discarding id.
func (c *Catalog) validateDiscard(s *GameState, ps *PlayerState, id CardInstID, reason DiscardReason) []string {
	if s.Card(id) == nil {
		return []string{fmt.Sprintf("card instance missing: %s", id)}
	}
	var errs []string
	dc := DiscardCtx{Player: ps, CardID: id, Reason: reason}
	c.eachKeyword(s, id, func(rt KeywordRuntime, eff KeywordEffect) bool {
		specific := eff.ValidateDiscard(rt, dc)
		if len(specific) == 0 && eff.BlocksDiscard(rt, dc) {
			specific = []string{"discard blocked by keyword: " + rt.ID}
		}
		errs = append(errs, specific...)
		return true
	})
	return errs
}

// overrideMoveDestination lets keywords redirect a move.
func (c *Catalog) overrideMoveDestination(s *GameState, ps *PlayerState, id CardInstID, from, to Zone, reason MoveReason) Zone {
	dest := to
	c.eachKeyword(s, id, func(rt KeywordRuntime, eff KeywordEffect) bool {
		dest = eff.OverrideMoveDestination(rt, MoveCtx{Owner: ps, CardID: id, From: from, To: dest, Reason: reason}, dest)
		return true
	})
	return dest
}

// overrideEXActivatable lets keywords change whether an EX card stays
// usable.
func (c *Catalog) overrideEXActivatable(s *GameState, ps *PlayerState, id CardInstID, reason EXActivationReason, round int, current bool) bool {
	ci := s.Card(id)
	if ci == nil {
		return current
	}
	ctx := EXActivationCtx{
		Owner:  ps,
		CardID: id,
		EXCard: c.Definition(ci.DefID).Type == CardTypeEX,
		Reason: reason,
		Round:  round,
	}
	out := current
	c.eachKeyword(s, id, func(rt KeywordRuntime, eff KeywordEffect) bool {
		out = eff.OverrideEXActivatable(rt, ctx, out)
		return true
	})
	return out
}
