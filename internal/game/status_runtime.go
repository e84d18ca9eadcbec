package game

import (
	"math/rand"

	"github.com/dueltower/duel-tower-server/internal/game/counters"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
)

// Hook sources used as labels in damage and heal log lines.
const (
	sourceTurnStart = "TURN_START"
	sourceTurnEnd   = "TURN_END"
	sourceValidate  = "VALIDATE"
	sourceCombatEnd = "COMBAT_END"
)

// StatusRuntime is what a status hook sees: the state, the catalog, the
// event sink and a label naming whoever triggered the hook. Hooks read and
// write stacks only through it.
type StatusRuntime struct {
	state   *GameState
	catalog *Catalog
	sink    *rules.Sink
	source  string
}

func newStatusRuntime(s *GameState, cat *Catalog, sink *rules.Sink, source string) *StatusRuntime {
	return &StatusRuntime{state: s, catalog: cat, sink: sink, source: source}
}

// validationRuntime returns a runtime whose events are dropped.
func validationRuntime(s *GameState, cat *Catalog) *StatusRuntime {
	return newStatusRuntime(s, cat, rules.DiscardSink(), sourceValidate)
}

func (rt *StatusRuntime) State() *GameState { return rt.state }
func (rt *StatusRuntime) Catalog() *Catalog { return rt.catalog }
func (rt *StatusRuntime) Source() string    { return rt.source }
func (rt *StatusRuntime) Sink() *rules.Sink { return rt.sink }

// statuses returns the stack collection of an owner. Reading faction stacks
// outside combat yields an empty collection; writing them is a bug.
func (rt *StatusRuntime) statuses(owner StatusOwner) *counters.Stacks {
	switch o := owner.(type) {
	case CharacterOwner:
		switch who := o.Who.(type) {
		case PlayerRef:
			return rt.state.mustPlayer(who.ID).Statuses
		case EnemyRef:
			return rt.state.mustEnemy(who.ID).Statuses
		}
		invariantf("unknown character ref %T", o.Who)
	case FactionOwner:
		if rt.state.Combat == nil {
			return nil
		}
		return rt.state.Combat.FactionStatuses(o.Faction)
	case CardOwner:
		return rt.state.mustCard(o.ID).Statuses
	}
	invariantf("unknown status owner %T", owner)
	return nil
}

func (rt *StatusRuntime) writable(owner StatusOwner) *counters.Stacks {
	st := rt.statuses(owner)
	if st == nil {
		invariantf("combat not started")
	}
	return st
}

// Stacks returns the stacks of id on owner.
func (rt *StatusRuntime) Stacks(owner StatusOwner, id string) int {
	return rt.statuses(owner).Get(id)
}

// SetStacks stores value; 0 or less removes the status.
func (rt *StatusRuntime) SetStacks(owner StatusOwner, id string, value int) {
	rt.writable(owner).Set(id, value)
}

// AddStacks adds delta to the stacks of id on owner.
func (rt *StatusRuntime) AddStacks(owner StatusOwner, id string, delta int) {
	if delta == 0 {
		return
	}
	rt.SetStacks(owner, id, rt.Stacks(owner, id)+delta)
}

// StacksOn is Stacks for a combatant.
func (rt *StatusRuntime) StacksOn(ref TargetRef, id string) int {
	return rt.Stacks(CharacterOwner{Who: ref}, id)
}

// SetStacksOn is SetStacks for a combatant.
func (rt *StatusRuntime) SetStacksOn(ref TargetRef, id string, value int) {
	rt.SetStacks(CharacterOwner{Who: ref}, id, value)
}

// Damage runs amount through the incoming chain of target with no source
// combatant, labelled with the runtime source.
func (rt *StatusRuntime) Damage(target TargetRef, amount int) {
	rt.applyDamage(nil, target, amount)
}

// Rand returns a generator derived from the session seed, the current
// version and the given salts.
func (rt *StatusRuntime) Rand(salts ...int64) *rand.Rand {
	return deriveRand(rt.state.Seed^rt.state.Version, salts...)
}

func (rt *StatusRuntime) Log(line string) {
	rt.sink.Log(line)
}

func (rt *StatusRuntime) Logf(format string, args ...any) {
	rt.sink.Logf(format, args...)
}
