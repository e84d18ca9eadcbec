package game

import (
	"github.com/dueltower/duel-tower-server/internal/game/counters"
)

const (
	baseHandLimit  = 6
	baseFieldLimit = 5
)

// PlayerState holds one player's zones, vitals and turn flags.
// Deck is a queue: index 0 is the top card.
type PlayerState struct {
	ID PlayerID

	Deck     []CardInstID
	Hand     []CardInstID
	Grave    []CardInstID
	Field    []CardInstID
	Excluded []CardInstID
	EXCard   CardInstID

	// EXCooldownUntilRound is the last round (inclusive) the EX card is
	// unusable. 0 means no cooldown.
	EXCooldownUntilRound int
	EXActivatable        bool

	SwappedThisTurn     bool
	CardsPlayedThisTurn int
	UsedEXThisTurn      bool

	Pending PendingDecision

	Statuses *counters.Stacks

	body, skill, sense, will int
	hp, ap                   int
}

// NewPlayerState creates a player with zero life stats at full vitals.
func NewPlayerState(id PlayerID) *PlayerState {
	ps := &PlayerState{
		ID:            id,
		EXActivatable: true,
		Statuses:      counters.NewStacks(),
	}
	ps.RefillToMax()
	return ps
}

// Ref returns the player as a target reference.
func (ps *PlayerState) Ref() TargetRef { return PlayerRef{ID: ps.ID} }

func (ps *PlayerState) Body() int  { return ps.body }
func (ps *PlayerState) Skill() int { return ps.skill }
func (ps *PlayerState) Sense() int { return ps.sense }
func (ps *PlayerState) Will() int  { return ps.will }

// SetStats sets all four life stats at once. Negative values become 0 and
// current vitals are clamped to the new maxima.
func (ps *PlayerState) SetStats(body, skill, sense, will int) {
	ps.body = max(0, body)
	ps.skill = max(0, skill)
	ps.sense = max(0, sense)
	ps.will = max(0, will)
	ps.clampVitals()
}

func (ps *PlayerState) HP() int { return ps.hp }
func (ps *PlayerState) AP() int { return ps.ap }

// SetHP stores hp clamped to [0, MaxHP].
func (ps *PlayerState) SetHP(v int) { ps.hp = clamp(v, 0, ps.MaxHP()) }

// SetAP stores ap clamped to [0, MaxAP].
func (ps *PlayerState) SetAP(v int) { ps.ap = clamp(v, 0, ps.MaxAP()) }

// RefillToMax restores hp and ap to their maxima.
func (ps *PlayerState) RefillToMax() {
	ps.hp = ps.MaxHP()
	ps.ap = ps.MaxAP()
}

// MaxHP is max(softcap(body*5 + skill*3 + 3, 40), 20).
func (ps *PlayerState) MaxHP() int {
	s := ps.body*5 + ps.skill*3 + 3
	return max(softCapInt(s, 40), 20)
}

// MaxAP is 3 + will/6.
func (ps *PlayerState) MaxAP() int {
	return 3 + floorDiv(ps.will, 6)
}

// AttackPower is softcap(body + skill + sense/2, 10), computed in half units.
func (ps *PlayerState) AttackPower() int {
	return softCapHalfScaled(2*(ps.body+ps.skill)+ps.sense, 10)
}

// HealPower is softcap(sense*2 + skill/2, 10), computed in half units.
func (ps *PlayerState) HealPower() int {
	return softCapHalfScaled(4*ps.sense+ps.skill, 10)
}

func (ps *PlayerState) HandLimit() int  { return baseHandLimit }
func (ps *PlayerState) FieldLimit() int { return baseFieldLimit }

// EXOnCooldown reports whether the EX card is unusable in round.
func (ps *PlayerState) EXOnCooldown(round int) bool {
	return ps.EXCooldownUntilRound > 0 && round <= ps.EXCooldownUntilRound
}

// CardCount counts every card the player holds across all zones.
func (ps *PlayerState) CardCount() int {
	n := len(ps.Deck) + len(ps.Hand) + len(ps.Grave) + len(ps.Field) + len(ps.Excluded)
	if ps.EXCard != "" {
		n++
	}
	return n
}

// InHand reports whether id is in the player's hand.
func (ps *PlayerState) InHand(id CardInstID) bool {
	return indexOf(ps.Hand, id) >= 0
}

func (ps *PlayerState) resetTurnFlags() {
	ps.SwappedThisTurn = false
	ps.CardsPlayedThisTurn = 0
	ps.UsedEXThisTurn = false
}

func (ps *PlayerState) clampVitals() {
	ps.hp = clamp(ps.hp, 0, ps.MaxHP())
	ps.ap = clamp(ps.ap, 0, ps.MaxAP())
}

// EnemyState is an enemy combatant. Enemies hold no cards.
type EnemyState struct {
	ID       EnemyID
	Statuses *counters.Stacks

	maxHP int
	hp    int
}

// NewEnemyState creates an enemy at full hp. maxHP is at least 1.
func NewEnemyState(id EnemyID, maxHP int) *EnemyState {
	es := &EnemyState{ID: id, Statuses: counters.NewStacks(), maxHP: max(1, maxHP)}
	es.hp = es.maxHP
	return es
}

// Ref returns the enemy as a target reference.
func (es *EnemyState) Ref() TargetRef { return EnemyRef{ID: es.ID} }

func (es *EnemyState) HP() int    { return es.hp }
func (es *EnemyState) MaxHP() int { return es.maxHP }

// SetHP stores hp clamped to [0, MaxHP].
func (es *EnemyState) SetHP(v int) { es.hp = clamp(v, 0, es.maxHP) }

// SetMaxHP changes the maximum (at least 1) and re-clamps hp.
func (es *EnemyState) SetMaxHP(v int) {
	es.maxHP = max(1, v)
	es.hp = clamp(es.hp, 0, es.maxHP)
}

func softCapInt(s, limit int) int {
	if s <= limit {
		return s
	}
	return limit + floorDiv(s-limit, 2)
}

// softCapHalfScaled applies softCapInt to s2/2 without losing the half unit:
// floor((2*min(s2, 2cap) + max(s2-2cap, 0)) / 4).
func softCapHalfScaled(s2, limit int) int {
	cap2 := limit * 2
	base2 := min(s2, cap2)
	over2 := max(s2-cap2, 0)
	return floorDiv(2*base2+over2, 4)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func indexOf(ids []CardInstID, id CardInstID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []CardInstID, id CardInstID) []CardInstID {
	if i := indexOf(ids, id); i >= 0 {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}
