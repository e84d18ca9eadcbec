package game

import "sort"

// hookEntry is one status stack that may take part in a hook chain.
type hookEntry struct {
	owner    StatusOwner
	id       string
	priority int
}

// hookEntries collects the statuses of who and, during combat, of who's
// faction, ordered by definition priority. Ties keep collection order.
func (rt *StatusRuntime) hookEntries(who TargetRef) []hookEntry {
	var entries []hookEntry
	char := CharacterOwner{Who: who}
	for _, id := range rt.statuses(char).Keys() {
		entries = append(entries, hookEntry{owner: char, id: id, priority: rt.catalog.Priority(id)})
	}
	if rt.state.Combat != nil {
		fac := FactionOwner{Faction: who.Faction()}
		for _, id := range rt.statuses(fac).Keys() {
			entries = append(entries, hookEntry{owner: fac, id: id, priority: rt.catalog.Priority(id)})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	return entries
}

// eachActive calls fn for every entry that has an effect and, at the time
// of the call, positive stacks. fn returns false to stop.
func (rt *StatusRuntime) eachActive(entries []hookEntry, fn func(e hookEntry, eff StatusEffect) bool) {
	for _, e := range entries {
		eff, ok := rt.catalog.StatusEffect(e.id)
		if !ok {
			continue
		}
		if rt.Stacks(e.owner, e.id) <= 0 {
			continue
		}
		if !fn(e, eff) {
			return
		}
	}
}

// modifiedCost runs the cost hooks of actor over the card's base cost.
// The result is never negative.
func (rt *StatusRuntime) modifiedCost(actor TargetRef, ci *CardInstance, def CardDefinition) int {
	cur := def.Cost
	rt.eachActive(rt.hookEntries(actor), func(_ hookEntry, eff StatusEffect) bool {
		cur = eff.OnCost(rt, actor, ci, def, cur)
		return true
	})
	return max(0, cur)
}

func (rt *StatusRuntime) validatePlayCard(actor TargetRef, ci *CardInstance, def CardDefinition) []string {
	var errs []string
	rt.eachActive(rt.hookEntries(actor), func(_ hookEntry, eff StatusEffect) bool {
		errs = append(errs, eff.ValidatePlayCard(rt, actor, ci, def)...)
		return true
	})
	return errs
}

func (rt *StatusRuntime) afterPlayCard(actor TargetRef, ci *CardInstance, def CardDefinition) {
	rt.eachActive(rt.hookEntries(actor), func(_ hookEntry, eff StatusEffect) bool {
		eff.OnAfterPlayCard(rt, actor, ci, def)
		return true
	})
}

func (rt *StatusRuntime) validateUseEX(actor TargetRef, ci *CardInstance, def CardDefinition) []string {
	var errs []string
	rt.eachActive(rt.hookEntries(actor), func(_ hookEntry, eff StatusEffect) bool {
		errs = append(errs, eff.ValidateUseEX(rt, actor, ci, def)...)
		return true
	})
	return errs
}

func (rt *StatusRuntime) afterUseEX(actor TargetRef, ci *CardInstance, def CardDefinition) {
	rt.eachActive(rt.hookEntries(actor), func(_ hookEntry, eff StatusEffect) bool {
		eff.OnAfterUseEX(rt, actor, ci, def)
		return true
	})
}

// ignoresTargetRules reports whether actor holds a status exempting it from
// forced-target rules.
func (rt *StatusRuntime) ignoresTargetRules(actor TargetRef) bool {
	ignores := false
	rt.eachActive(rt.hookEntries(actor), func(e hookEntry, _ StatusEffect) bool {
		def, ok := rt.catalog.StatusDefinition(e.id)
		ignores = ok && def.IgnoresTargetRules
		return !ignores
	})
	return ignores
}

func (rt *StatusRuntime) isTargetRule(id string) bool {
	def, ok := rt.catalog.StatusDefinition(id)
	return ok && def.TargetRule
}

// validateEnemyOneTarget checks a single opposing target against every
// forced-target rule. It never mutates state.
func (rt *StatusRuntime) validateEnemyOneTarget(actor TargetRef, cardID CardInstID, chosen TargetRef) []string {
	if chosen == nil || sameFaction(actor, chosen) {
		return nil
	}
	if rt.ignoresTargetRules(actor) {
		return nil
	}
	candidates := rt.state.Opponents(actor)
	var errs []string
	for _, id := range rt.catalog.TargetRules() {
		eff, ok := rt.catalog.StatusEffect(id)
		if !ok {
			continue
		}
		errs = append(errs, eff.ValidateEnemyOneTarget(rt, actor, cardID, chosen, candidates)...)
	}
	return errs
}

// resolveEnemyOneTarget picks the final target of a single opposing
// selection. Actor and faction side overrides run first with every
// combatant as a candidate; forced-target rules of the other side run only
// if the result still opposes the actor.
func (rt *StatusRuntime) resolveEnemyOneTarget(actor TargetRef, cardID CardInstID, chosen TargetRef) TargetRef {
	if chosen == nil || sameFaction(actor, chosen) {
		return chosen
	}

	all := rt.state.AllRefs()
	cur := chosen
	rt.eachActive(rt.hookEntries(actor), func(e hookEntry, eff StatusEffect) bool {
		if rt.isTargetRule(e.id) {
			return true
		}
		if next := eff.OnResolveEnemyOneTarget(rt, actor, cardID, cur, all); next != nil {
			cur = next
		}
		return true
	})

	// A confused pick that still lands on an opponent is subject to taunt.
	if sameFaction(actor, cur) {
		return cur
	}

	opponents := rt.state.Opponents(actor)
	for _, id := range rt.catalog.TargetRules() {
		eff, ok := rt.catalog.StatusEffect(id)
		if !ok {
			continue
		}
		if next := eff.OnResolveEnemyOneTarget(rt, actor, cardID, cur, opponents); next != nil {
			cur = next
		}
	}
	return cur
}

// runTurnHooks runs the turn start or turn end hooks of owner's own
// statuses. Hooks may change stacks while the snapshot is walked.
func (rt *StatusRuntime) runTurnHooks(owner TargetRef, start bool) {
	char := CharacterOwner{Who: owner}
	for _, id := range rt.statuses(char).Keys() {
		stacks := rt.Stacks(char, id)
		if stacks <= 0 {
			continue
		}
		eff, ok := rt.catalog.StatusEffect(id)
		if !ok {
			continue
		}
		if start {
			eff.OnTurnStart(rt, owner, stacks)
		} else {
			eff.OnTurnEnd(rt, owner, stacks)
		}
	}
}

// combatEndCleanup removes every status that does not persist after
// combat. Unknown statuses never persist.
func (rt *StatusRuntime) combatEndCleanup() {
	drop := func(id string) bool {
		def, ok := rt.catalog.StatusDefinition(id)
		return !ok || !def.PersistsAfterCombat
	}
	for _, ref := range rt.state.AllRefs() {
		rt.statuses(CharacterOwner{Who: ref}).RemoveIf(drop)
	}
	if rt.state.Combat != nil {
		rt.state.Combat.FactionStatuses(FactionPlayers).RemoveIf(drop)
		rt.state.Combat.FactionStatuses(FactionEnemies).RemoveIf(drop)
	}
	for _, ci := range rt.state.Cards {
		ci.Statuses.RemoveIf(drop)
	}
}
