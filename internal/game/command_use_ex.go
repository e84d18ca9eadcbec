package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// UseEXCommand activates the card in the player's EX slot. The card stays
// in its slot and goes on cooldown until the end of the next round.
type UseEXCommand struct {
	CommandMeta
	PlayerID  PlayerID
	Selection TargetSelection
}

func (UseEXCommand) Type() CommandType { return CommandUseEX }

func (c UseEXCommand) Validate(s *GameState, cat *Catalog) []string {
	ps, errs, ok := turnGate(s, c.PlayerID)
	if !ok {
		return errs
	}
	if ps.EXCard == "" {
		return append(errs, "ex card not set")
	}
	if s.Combat != nil && ps.EXOnCooldown(s.Combat.Round) {
		errs = append(errs, "ex on cooldown")
	}
	if !ps.EXActivatable {
		errs = append(errs, "ex card not activatable")
	}

	ci := s.Card(ps.EXCard)
	if ci == nil {
		return append(errs, fmt.Sprintf("ex card instance missing: %s", ps.EXCard))
	}
	if ci.Owner != c.PlayerID {
		errs = append(errs, "ex card is not yours")
	}

	def := cat.Definition(ci.DefID)
	if def.Type != CardTypeEX {
		errs = append(errs, fmt.Sprintf("not an EX card: %s", def.ID))
	}

	rt := validationRuntime(s, cat)
	if need := rt.modifiedCost(ps.Ref(), ci, def); ps.AP() < need {
		errs = append(errs, apError(need, ps.AP()))
	}

	ec := &EffectContext{
		State:     s,
		Catalog:   cat,
		Actor:     c.PlayerID,
		CardID:    ci.ID,
		Selection: c.Selection,
		Sink:      rules.DiscardSink(),
	}
	errs = append(errs, cat.CardEffect(def.ID).Validate(ec)...)
	errs = append(errs, rt.validateUseEX(ps.Ref(), ci, def)...)
	return errs
}

func (c UseEXCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	ps := s.mustPlayer(c.PlayerID)
	if s.Combat == nil {
		invariantf("combat not started")
	}
	if ps.EXCard == "" {
		invariantf("ex card not set")
	}
	round := s.Combat.Round
	ci := s.mustCard(ps.EXCard)
	def := cat.Definition(ci.DefID)
	rt := newStatusRuntime(s, cat, sink, string(c.PlayerID))

	cost := rt.modifiedCost(ps.Ref(), ci, def)
	if ps.AP() < cost {
		invariantf("not enough ap during handle (need=%d, have=%d)", cost, ps.AP())
	}
	ps.SetAP(ps.AP() - cost)

	ec := &EffectContext{
		State:     s,
		Catalog:   cat,
		Actor:     c.PlayerID,
		CardID:    ci.ID,
		Selection: c.Selection,
		Sink:      sink,
	}
	cat.CardEffect(def.ID).Resolve(ec)

	until := round + 1
	ps.EXCooldownUntilRound = until
	ps.UsedEXThisTurn = true
	ps.EXActivatable = cat.overrideEXActivatable(s, ps, ci.ID, EXUsed, round, ps.EXActivatable)

	rt.afterUseEX(ps.Ref(), ci, def)
	ensureHandLimit(s, cat, ps, sink)
	sink.Logf("%s uses EX %s (%s) (cooldown until end of round %d)", ps.ID, def.ID, def.Name, until)

	return sink.Events()
}
