package game

import "strings"

// TargetRef points at a combatant. Implementations are PlayerRef and
// EnemyRef; values are comparable with ==.
type TargetRef interface {
	// Key renders the reference as "PLAYER:<id>" or "ENEMY:<id>".
	Key() string
	IsPlayer() bool
	Faction() Faction
	isTargetRef()
}

// PlayerRef references a player.
type PlayerRef struct {
	ID PlayerID
}

// EnemyRef references an enemy.
type EnemyRef struct {
	ID EnemyID
}

func (r PlayerRef) Key() string      { return "PLAYER:" + string(r.ID) }
func (r PlayerRef) IsPlayer() bool   { return true }
func (r PlayerRef) Faction() Faction { return FactionPlayers }
func (PlayerRef) isTargetRef()       {}

func (r EnemyRef) Key() string      { return "ENEMY:" + string(r.ID) }
func (r EnemyRef) IsPlayer() bool   { return false }
func (r EnemyRef) Faction() Faction { return FactionEnemies }
func (EnemyRef) isTargetRef()       {}

// ActorKey returns the key of ref, or "" for nil.
func ActorKey(ref TargetRef) string {
	if ref == nil {
		return ""
	}
	return ref.Key()
}

// ParseActorKey is the inverse of TargetRef.Key.
func ParseActorKey(key string) (TargetRef, bool) {
	switch {
	case strings.HasPrefix(key, "PLAYER:"):
		return PlayerRef{ID: PlayerID(strings.TrimPrefix(key, "PLAYER:"))}, true
	case strings.HasPrefix(key, "ENEMY:"):
		return EnemyRef{ID: EnemyID(strings.TrimPrefix(key, "ENEMY:"))}, true
	}
	return nil, false
}

func sameFaction(a, b TargetRef) bool {
	return a != nil && b != nil && a.Faction() == b.Faction()
}

func actorKeys(refs []TargetRef) []string {
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = r.Key()
	}
	return keys
}

func containsRef(refs []TargetRef, ref TargetRef) bool {
	for _, r := range refs {
		if r == ref {
			return true
		}
	}
	return false
}

// TargetSelection is the caller supplied choice of targets for a card.
type TargetSelection struct {
	Targets []TargetRef
}

// One returns the single selected target.
func (s TargetSelection) One() (TargetRef, bool) {
	if len(s.Targets) != 1 {
		return nil, false
	}
	return s.Targets[0], true
}

// StatusOwner identifies where a status stack lives. Implementations are
// CharacterOwner, FactionOwner and CardOwner.
type StatusOwner interface {
	isStatusOwner()
}

// CharacterOwner owns stacks on a player or an enemy.
type CharacterOwner struct {
	Who TargetRef
}

// FactionOwner owns stacks shared by a whole faction.
type FactionOwner struct {
	Faction Faction
}

// CardOwner owns stacks on a single card instance.
type CardOwner struct {
	ID CardInstID
}

func (CharacterOwner) isStatusOwner() {}
func (FactionOwner) isStatusOwner()   {}
func (CardOwner) isStatusOwner()      {}

// OwnerOf wraps a combatant as a status owner.
func OwnerOf(ref TargetRef) StatusOwner {
	return CharacterOwner{Who: ref}
}
