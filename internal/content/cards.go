package content

import (
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/game/targeting"
)

// Card ids.
const (
	CardBasicAttack   game.CardDefID = "C001"
	CardBasicRecovery game.CardDefID = "C002"
	CardBasicGuard    game.CardDefID = "C003"
	CardBasicCurse    game.CardDefID = "C004"
	CardBandageWrap   game.CardDefID = "EX901"
)

// Cards returns every card blueprint.
func Cards() []game.CardBlueprint {
	return []game.CardBlueprint{
		{
			Definition: game.CardDefinition{
				ID:        CardBasicAttack,
				Name:      "Basic Attack",
				Type:      game.CardTypeSkill,
				Cost:      1,
				ResolveTo: game.ZoneGrave,
				Text:      "Deal {attack} damage to one enemy.",
			},
			Effect: basicAttack{},
		},
		{
			Definition: game.CardDefinition{
				ID:        CardBasicRecovery,
				Name:      "Basic Recovery",
				Type:      game.CardTypeSkill,
				Cost:      1,
				ResolveTo: game.ZoneGrave,
				Text:      "Restore {heal} hp to one ally.",
			},
			Effect: basicRecovery{},
		},
		{
			Definition: game.CardDefinition{
				ID:        CardBasicGuard,
				Name:      "Basic Guard",
				Type:      game.CardTypeSkill,
				Cost:      1,
				ResolveTo: game.ZoneGrave,
				Text:      "Gain {heal} SHIELD.",
			},
			Effect: basicGuard{},
		},
		{
			Definition: game.CardDefinition{
				ID:        CardBasicCurse,
				Name:      "Basic Curse",
				Type:      game.CardTypeSkill,
				Cost:      2,
				ResolveTo: game.ZoneGrave,
				Text:      "Give one enemy {attack} PAIN.",
			},
			Effect: basicCurse{},
		},
		{
			Definition: game.CardDefinition{
				ID:        CardBandageWrap,
				Name:      "Bandage Wrap",
				Type:      game.CardTypeEX,
				Cost:      1,
				ResolveTo: game.ZoneEX,
				Text:      "Restore {heal}*3/4 hp to one ally. If your hand holds 1 card or fewer, draw 1.",
			},
			Effect: bandageWrap{},
		},
	}
}

type basicAttack struct{}

func (basicAttack) Validate(ec *game.EffectContext) []string {
	return ec.Ops().ValidateTarget(targeting.TargetEnemyOne)
}

func (basicAttack) Resolve(ec *game.EffectContext) {
	ec.Ops().Damage(targeting.TargetEnemyOne, ec.Player().AttackPower())
}

type basicRecovery struct{}

func (basicRecovery) Validate(ec *game.EffectContext) []string {
	return ec.Ops().ValidateTarget(targeting.TargetAllyOne)
}

func (basicRecovery) Resolve(ec *game.EffectContext) {
	ec.Ops().Heal(targeting.TargetAllyOne, ec.Player().HealPower())
}

type basicGuard struct{}

func (basicGuard) Validate(*game.EffectContext) []string { return nil }

func (basicGuard) Resolve(ec *game.EffectContext) {
	ec.Ops().AddStatus(targeting.TargetSelf, StatusShield, ec.Player().HealPower())
}

type basicCurse struct{}

func (basicCurse) Validate(ec *game.EffectContext) []string {
	return ec.Ops().ValidateTarget(targeting.TargetEnemyOne)
}

func (basicCurse) Resolve(ec *game.EffectContext) {
	ec.Ops().AddStatus(targeting.TargetEnemyOne, StatusPain, ec.Player().AttackPower())
}

type bandageWrap struct{}

func (bandageWrap) Validate(ec *game.EffectContext) []string {
	return ec.Ops().ValidateTarget(targeting.TargetAllyOne)
}

func (bandageWrap) Resolve(ec *game.EffectContext) {
	me := ec.Player()
	ops := ec.Ops()
	ops.Heal(targeting.TargetAllyOne, me.HealPower()*3/4)
	if len(me.Hand) <= 1 {
		ops.Draw(1)
	}
}
