package content

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game"
)

// Status ids.
const (
	StatusShield      = "SHIELD"
	StatusRegen       = "REGEN"
	StatusVigor       = "VIGOR"
	StatusEvasion     = "EVASION"
	StatusTaunt       = "TAUNT"
	StatusPain        = "PAIN"
	StatusStun        = "STUN"
	StatusPressure    = "PRESSURE"
	StatusDestruction = "DESTRUCTION"
	StatusWeak        = "WEAK"
	StatusConfusion   = "CONFUSION"
	StatusBarrier     = "BARRIER"
	StatusBlessing    = "BLESSING"
)

// Statuses returns every status blueprint.
func Statuses() []game.StatusBlueprint {
	return []game.StatusBlueprint{
		{
			Definition: character(StatusShield, "Shield", game.StatusBuff, 10,
				"Absorbs incoming damage up to its stacks before hp is lost."),
			Effect: shield{},
		},
		{
			Definition: character(StatusRegen, "Regeneration", game.StatusBuff, 100,
				"At turn end, restores hp equal to its stacks, then halves."),
			Effect: regen{},
		},
		{
			Definition: character(StatusVigor, "Vigor", game.StatusBuff, 20,
				"Adds its stacks to damage dealt to opponents. Removed at turn end."),
			Effect: vigor{clearAtTurnEnd{id: StatusVigor}},
		},
		{
			Definition: character(StatusEvasion, "Evasion", game.StatusBuff, 1,
				"Negates one hit from an opponent and loses 1 stack."),
			Effect: evasion{},
		},
		{
			Definition: game.StatusDefinition{
				ID:         StatusTaunt,
				Name:       "Taunt",
				Kind:       game.StatusBuff,
				Scope:      game.ScopeCharacter,
				Priority:   50,
				TargetRule: true,
				Text:       "Opponents picking a single enemy must pick this character. Loses 1 stack each time.",
			},
			Effect: taunt{},
		},
		{
			Definition: character(StatusPain, "Pain", game.StatusDebuff, 50,
				"At turn end, deals damage equal to its stacks, then halves."),
			Effect: pain{},
		},
		{
			Definition: character(StatusStun, "Stun", game.StatusDebuff, 999,
				"Cannot play skill cards or use EX. Removed at turn end."),
			Effect: stun{clearAtTurnEnd{id: StatusStun}},
		},
		{
			Definition: character(StatusPressure, "Pressure", game.StatusDebuff, 100,
				"Card costs rise by its stacks. Removed at turn end."),
			Effect: pressure{clearAtTurnEnd{id: StatusPressure}},
		},
		{
			Definition: character(StatusDestruction, "Destruction", game.StatusDebuff, 100,
				"Playing a skill card deals damage equal to its stacks to yourself. Removed at turn end."),
			Effect: destruction{clearAtTurnEnd{id: StatusDestruction}},
		},
		{
			Definition: character(StatusWeak, "Weak", game.StatusDebuff, 20,
				"Reduces damage dealt to opponents by its stacks. Removed at turn end."),
			Effect: weak{clearAtTurnEnd{id: StatusWeak}},
		},
		{
			Definition: game.StatusDefinition{
				ID:                 StatusConfusion,
				Name:               "Confusion",
				Kind:               game.StatusDebuff,
				Scope:              game.ScopeCharacter,
				Priority:           30,
				IgnoresTargetRules: true,
				Text:               "Single enemy selections may name any enemy and land on a random combatant of either side. An enemy pick is still drawn by taunt.",
			},
			Effect: confusion{},
		},
		{
			Definition: game.StatusDefinition{
				ID:       StatusBarrier,
				Name:     "Barrier",
				Kind:     game.StatusBuff,
				Scope:    game.ScopeFaction,
				Priority: 9,
				Text:     "Absorbs damage dealt by opponents to any member of the faction.",
			},
			Effect: barrier{},
		},
		{
			Definition: game.StatusDefinition{
				ID:                  StatusBlessing,
				Name:                "Blessing",
				Kind:                game.StatusNeutral,
				Scope:               game.ScopeCharacter,
				Priority:            999,
				PersistsAfterCombat: true,
				Text:                "Does not fade when combat ends.",
			},
			Effect: game.NoopStatusEffect{},
		},
	}
}

func character(id, name string, kind game.StatusKind, priority int, text string) game.StatusDefinition {
	return game.StatusDefinition{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Scope:    game.ScopeCharacter,
		Priority: priority,
		Text:     text,
	}
}

// opposing reports whether a hit comes from the other side.
func opposing(source, target game.TargetRef) bool {
	return source != nil && target != nil && source.Faction() != target.Faction()
}

// clearAtTurnEnd removes a status when its holder's turn ends.
type clearAtTurnEnd struct {
	game.NoopStatusEffect
	id string
}

func (c clearAtTurnEnd) OnTurnEnd(rt *game.StatusRuntime, owner game.TargetRef, _ int) {
	rt.SetStacksOn(owner, c.id, 0)
}

type shield struct {
	game.NoopStatusEffect
}

func (shield) OnIncomingDamage(rt *game.StatusRuntime, owner game.StatusOwner, _, _ game.TargetRef, amount int) int {
	return absorb(rt, owner, StatusShield, amount)
}

func absorb(rt *game.StatusRuntime, owner game.StatusOwner, id string, amount int) int {
	stacks := rt.Stacks(owner, id)
	if stacks <= 0 || amount <= 0 {
		return amount
	}
	absorbed := min(stacks, amount)
	rt.SetStacks(owner, id, stacks-absorbed)
	return amount - absorbed
}

type regen struct {
	game.NoopStatusEffect
}

func (regen) OnTurnEnd(rt *game.StatusRuntime, owner game.TargetRef, stacks int) {
	hp, _ := rt.State().HP(owner)
	rt.State().SetHP(owner, hp+stacks)
	rt.SetStacksOn(owner, StatusRegen, stacks/2)
}

type vigor struct {
	clearAtTurnEnd
}

func (vigor) OnOutgoingDamage(rt *game.StatusRuntime, owner game.StatusOwner, source, target game.TargetRef, amount int) int {
	stacks := rt.Stacks(owner, StatusVigor)
	if stacks <= 0 || amount <= 0 || !opposing(source, target) {
		return amount
	}
	return amount + stacks
}

type evasion struct {
	game.NoopStatusEffect
}

func (evasion) OnIncomingDamage(rt *game.StatusRuntime, owner game.StatusOwner, source, target game.TargetRef, amount int) int {
	stacks := rt.Stacks(owner, StatusEvasion)
	if stacks <= 0 || amount <= 0 || !opposing(source, target) {
		return amount
	}
	rt.SetStacks(owner, StatusEvasion, stacks-1)
	rt.Logf("EVASION negates damage to %s (remaining=%d)", target.Key(), stacks-1)
	return 0
}

type taunt struct {
	game.NoopStatusEffect
}

func tauntHolders(rt *game.StatusRuntime, candidates []game.TargetRef) []game.TargetRef {
	var holders []game.TargetRef
	for _, c := range candidates {
		if rt.StacksOn(c, StatusTaunt) > 0 {
			holders = append(holders, c)
		}
	}
	return holders
}

func containsRef(refs []game.TargetRef, ref game.TargetRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

func (taunt) ValidateEnemyOneTarget(rt *game.StatusRuntime, _ game.TargetRef, _ game.CardInstID, chosen game.TargetRef, candidates []game.TargetRef) []string {
	holders := tauntHolders(rt, candidates)
	if len(holders) == 0 || containsRef(holders, chosen) {
		return nil
	}
	keys := make([]string, len(holders))
	for i, h := range holders {
		keys[i] = h.Key()
	}
	return []string{fmt.Sprintf("taunt: must target one of %v", keys)}
}

func (taunt) OnResolveEnemyOneTarget(rt *game.StatusRuntime, _ game.TargetRef, _ game.CardInstID, chosen game.TargetRef, candidates []game.TargetRef) game.TargetRef {
	holders := tauntHolders(rt, candidates)
	if len(holders) == 0 {
		return chosen
	}
	final := holders[0]
	if containsRef(holders, chosen) {
		final = chosen
	}
	cur := rt.StacksOn(final, StatusTaunt)
	rt.SetStacksOn(final, StatusTaunt, cur-1)
	rt.Logf("TAUNT forces target: %s (remaining=%d)", final.Key(), cur-1)
	return final
}

type pain struct {
	game.NoopStatusEffect
}

// Pain damage has no source: shield absorbs it, opponent-only hooks do not.
func (pain) OnTurnEnd(rt *game.StatusRuntime, owner game.TargetRef, stacks int) {
	rt.Damage(owner, stacks)
	rt.SetStacksOn(owner, StatusPain, stacks/2)
}

type stun struct {
	clearAtTurnEnd
}

func (stun) ValidatePlayCard(rt *game.StatusRuntime, actor game.TargetRef, _ *game.CardInstance, def game.CardDefinition) []string {
	if rt.StacksOn(actor, StatusStun) <= 0 || def.Type != game.CardTypeSkill {
		return nil
	}
	return []string{"stun: cannot play skill cards"}
}

func (stun) ValidateUseEX(rt *game.StatusRuntime, actor game.TargetRef, _ *game.CardInstance, def game.CardDefinition) []string {
	if rt.StacksOn(actor, StatusStun) <= 0 || def.Type != game.CardTypeEX {
		return nil
	}
	return []string{"stun: cannot use EX while stunned"}
}

type pressure struct {
	clearAtTurnEnd
}

func (pressure) OnCost(rt *game.StatusRuntime, actor game.TargetRef, _ *game.CardInstance, _ game.CardDefinition, cost int) int {
	return cost + rt.StacksOn(actor, StatusPressure)
}

type destruction struct {
	clearAtTurnEnd
}

// OnAfterPlayCard is recoil: it skips the damage pipeline.
func (destruction) OnAfterPlayCard(rt *game.StatusRuntime, actor game.TargetRef, _ *game.CardInstance, def game.CardDefinition) {
	stacks := rt.StacksOn(actor, StatusDestruction)
	if stacks <= 0 || def.Type != game.CardTypeSkill {
		return
	}
	hp, _ := rt.State().HP(actor)
	rt.State().SetHP(actor, hp-stacks)
	hp, maxHP := rt.State().HP(actor)
	rt.Logf("DESTRUCTION deals %d to %s (hp=%d/%d)", stacks, actor.Key(), hp, maxHP)
}

type weak struct {
	clearAtTurnEnd
}

func (weak) OnOutgoingDamage(rt *game.StatusRuntime, owner game.StatusOwner, source, target game.TargetRef, amount int) int {
	stacks := rt.Stacks(owner, StatusWeak)
	if stacks <= 0 || amount <= 0 || !opposing(source, target) {
		return amount
	}
	return max(0, amount-stacks)
}

type confusion struct {
	game.NoopStatusEffect
}

func (confusion) OnResolveEnemyOneTarget(rt *game.StatusRuntime, actor game.TargetRef, cardID game.CardInstID, chosen game.TargetRef, candidates []game.TargetRef) game.TargetRef {
	stacks := rt.StacksOn(actor, StatusConfusion)
	if stacks <= 0 || len(candidates) == 0 {
		return chosen
	}
	r := rt.Rand(game.Salt(actor.Key()), game.Salt(string(cardID)), int64(stacks)<<32)
	picked := candidates[r.Intn(len(candidates))]
	rt.Logf("CONFUSION overrides target: %s", picked.Key())
	return picked
}

type barrier struct {
	game.NoopStatusEffect
}

func (barrier) OnIncomingDamage(rt *game.StatusRuntime, owner game.StatusOwner, source, target game.TargetRef, amount int) int {
	if _, ok := owner.(game.FactionOwner); !ok || !opposing(source, target) {
		return amount
	}
	return absorb(rt, owner, StatusBarrier, amount)
}
