package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/dueltower/duel-tower-server/internal/game/targeting"
)

// EffectContext is what a card effect sees while validating or resolving.
type EffectContext struct {
	State     *GameState
	Catalog   *Catalog
	Actor     PlayerID
	CardID    CardInstID
	Selection TargetSelection
	Sink      *rules.Sink
}

// Player returns the acting player.
func (ec *EffectContext) Player() *PlayerState {
	return ec.State.mustPlayer(ec.Actor)
}

// Ops returns the effect primitives bound to this context.
func (ec *EffectContext) Ops() EffectOps {
	return EffectOps{ec: ec}
}

// EffectOps implements targeting, damage, healing, statuses and draws on
// behalf of a card effect.
type EffectOps struct {
	ec *EffectContext
}

func (o EffectOps) actor() TargetRef {
	return PlayerRef{ID: o.ec.Actor}
}

func (o EffectOps) runtime() *StatusRuntime {
	return newStatusRuntime(o.ec.State, o.ec.Catalog, o.ec.Sink, string(o.ec.Actor))
}

// ValidateTarget checks the selection against t: arity, allegiance,
// existence, then forced-target rules for a single opposing target.
func (o EffectOps) ValidateTarget(t targeting.Target) []string {
	if !t.RequiresSelection() {
		return nil
	}
	errs := targeting.ValidateArity(t, o.ec.Selection.Targets)
	one, ok := o.ec.Selection.One()
	if !ok {
		return errs
	}
	if one == nil || !o.ec.State.Exists(one) {
		return append(errs, fmt.Sprintf("target not found: %s", ActorKey(one)))
	}
	rt := validationRuntime(o.ec.State, o.ec.Catalog)
	return append(errs, rt.validateEnemyOneTarget(o.actor(), o.ec.CardID, one)...)
}

// Damage deals amount to every combatant t resolves to.
func (o EffectOps) Damage(t targeting.Target, amount int) {
	if amount <= 0 {
		return
	}
	rt := o.runtime()
	for _, ref := range o.resolveTargets(rt, t) {
		rt.applyDamage(o.actor(), ref, amount)
	}
}

// Heal restores amount to every combatant t resolves to.
func (o EffectOps) Heal(t targeting.Target, amount int) {
	if amount <= 0 {
		return
	}
	rt := o.runtime()
	for _, ref := range o.resolveTargets(rt, t) {
		rt.applyHeal(ref, amount)
	}
}

// AddStatus adds delta stacks of a status according to its scope. A
// faction scoped status is added once per faction reached.
func (o EffectOps) AddStatus(t targeting.Target, id string, delta int) {
	if delta == 0 {
		return
	}
	def, ok := o.ec.Catalog.StatusDefinition(id)
	if !ok {
		invariantf("unknown status: %s", id)
	}
	rt := o.runtime()

	switch def.Scope {
	case ScopeCharacter:
		for _, ref := range o.resolveTargets(rt, t) {
			rt.AddStacks(CharacterOwner{Who: ref}, id, delta)
		}
	case ScopeFaction:
		var seen []Faction
		for _, ref := range o.resolveTargets(rt, t) {
			f := ref.Faction()
			if containsFaction(seen, f) {
				continue
			}
			seen = append(seen, f)
			rt.AddStacks(FactionOwner{Faction: f}, id, delta)
		}
	case ScopeCard:
		rt.AddStacks(CardOwner{ID: o.ec.CardID}, id, delta)
	default:
		invariantf("status %s has unknown scope %q", id, def.Scope)
	}
}

// Draw draws up to n cards for the actor.
func (o EffectOps) Draw(n int) int {
	return newZoneOps(o.ec.State, o.ec.Catalog, o.ec.Sink).DrawWithRefill(o.ec.Player(), n)
}

func (o EffectOps) resolveTargets(rt *StatusRuntime, t targeting.Target) []TargetRef {
	s := o.ec.State
	switch t {
	case targeting.TargetNone:
		return nil
	case targeting.TargetSelf:
		return []TargetRef{o.actor()}
	case targeting.TargetAllyAll, targeting.TargetAllySide:
		return s.PlayerRefs()
	case targeting.TargetEnemyAll, targeting.TargetEnemySide:
		return s.EnemyRefs()
	case targeting.TargetAllyOne:
		return []TargetRef{o.requireOne(true, false)}
	case targeting.TargetEnemyOne:
		chosen := o.requireOne(false, true)
		return []TargetRef{rt.resolveEnemyOneTarget(o.actor(), o.ec.CardID, chosen)}
	case targeting.TargetAnyOne:
		chosen := o.requireOne(false, false)
		return []TargetRef{rt.resolveEnemyOneTarget(o.actor(), o.ec.CardID, chosen)}
	}
	invariantf("unknown target %q", t)
	return nil
}

// requireOne returns the single selected target. Validation already
// checked it, so anything else is a bug.
func (o EffectOps) requireOne(player, enemy bool) TargetRef {
	one, ok := o.ec.Selection.One()
	if !ok || one == nil {
		invariantf("exactly one target expected")
	}
	if player && !one.IsPlayer() {
		invariantf("player target expected, got %s", one.Key())
	}
	if enemy && one.IsPlayer() {
		invariantf("enemy target expected, got %s", one.Key())
	}
	return one
}

func containsFaction(fs []Faction, f Faction) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
