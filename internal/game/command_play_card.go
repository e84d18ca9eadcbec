package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// PlayCardCommand plays a card from hand.
type PlayCardCommand struct {
	CommandMeta
	PlayerID  PlayerID
	CardID    CardInstID
	Selection TargetSelection
}

func (PlayCardCommand) Type() CommandType { return CommandPlayCard }

func (c PlayCardCommand) Validate(s *GameState, cat *Catalog) []string {
	ps, errs, ok := turnGate(s, c.PlayerID)
	if !ok {
		return errs
	}
	if !ps.InHand(c.CardID) {
		errs = append(errs, fmt.Sprintf("card not in hand: %s", c.CardID))
	}
	ci := s.Card(c.CardID)
	if ci == nil {
		return append(errs, fmt.Sprintf("card instance missing: %s", c.CardID))
	}
	if ci.Owner != c.PlayerID {
		errs = append(errs, "not your card")
	}

	def := cat.Definition(ci.DefID)
	rt := validationRuntime(s, cat)

	if need := rt.modifiedCost(ps.Ref(), ci, def); ps.AP() < need {
		errs = append(errs, apError(need, ps.AP()))
	}
	if def.Destination() == ZoneField && len(ps.Field) >= ps.FieldLimit() {
		errs = append(errs, fmt.Sprintf("field is full (limit=%d)", ps.FieldLimit()))
	}

	ec := &EffectContext{
		State:     s,
		Catalog:   cat,
		Actor:     c.PlayerID,
		CardID:    c.CardID,
		Selection: c.Selection,
		Sink:      rules.DiscardSink(),
	}
	errs = append(errs, cat.CardEffect(def.ID).Validate(ec)...)
	errs = append(errs, rt.validatePlayCard(ps.Ref(), ci, def)...)
	return errs
}

func (c PlayCardCommand) Handle(s *GameState, cat *Catalog) []rules.Event {
	sink := rules.NewSink()
	ps := s.mustPlayer(c.PlayerID)
	ci := s.mustCard(c.CardID)
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
		CardID:    c.CardID,
		Selection: c.Selection,
		Sink:      sink,
	}
	cat.CardEffect(def.ID).Resolve(ec)

	if ps.InHand(c.CardID) && s.Card(c.CardID) != nil {
		newZoneOps(s, cat, sink).Move(ps, c.CardID, ZoneHand, def.Destination(), MovePlay)
	}
	ps.CardsPlayedThisTurn++

	rt.afterPlayCard(ps.Ref(), ci, def)
	ensureHandLimit(s, cat, ps, sink)
	sink.Logf("%s plays %s", ps.ID, def.ID)

	return sink.Events()
}
