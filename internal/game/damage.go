package game

// applyDamage is the damage pipeline. The source's outgoing chain runs
// first (only when there is a source), then the target's incoming chain;
// whatever is left comes off the target's hp.
func (rt *StatusRuntime) applyDamage(source, target TargetRef, amount int) {
	if amount <= 0 {
		return
	}

	remaining := amount
	if source != nil {
		remaining = rt.damageChain(source, remaining, func(eff StatusEffect, owner StatusOwner, cur int) int {
			return eff.OnOutgoingDamage(rt, owner, source, target, cur)
		})
	}
	if remaining <= 0 {
		return
	}

	remaining = rt.damageChain(target, remaining, func(eff StatusEffect, owner StatusOwner, cur int) int {
		return eff.OnIncomingDamage(rt, owner, source, target, cur)
	})
	if remaining <= 0 {
		return
	}

	hp, _ := rt.state.HP(target)
	rt.state.SetHP(target, hp-remaining)
	hp, maxHP := rt.state.HP(target)
	rt.Logf("%s deals %d to %s (hp=%d/%d)", rt.source, remaining, target.Key(), hp, maxHP)
}

// damageChain folds amount through the priority sorted hooks of who and
// stops as soon as nothing is left.
func (rt *StatusRuntime) damageChain(who TargetRef, amount int, hook func(eff StatusEffect, owner StatusOwner, cur int) int) int {
	cur := amount
	rt.eachActive(rt.hookEntries(who), func(e hookEntry, eff StatusEffect) bool {
		if cur <= 0 {
			return false
		}
		cur = hook(eff, e.owner, cur)
		return true
	})
	return max(cur, 0)
}

// applyHeal restores hp up to the maximum.
func (rt *StatusRuntime) applyHeal(target TargetRef, amount int) {
	if amount <= 0 {
		return
	}
	hp, _ := rt.state.HP(target)
	rt.state.SetHP(target, hp+amount)
	hp, maxHP := rt.state.HP(target)
	rt.Logf("%s heals %d to %s (hp=%d/%d)", rt.source, amount, target.Key(), hp, maxHP)
}
