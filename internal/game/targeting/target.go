package targeting

import (
	"fmt"
	"strings"
)

// Target describes who a card effect reaches.
type Target string

const (
	// TargetNone reaches nobody.
	TargetNone Target = "NONE"
	// TargetSelf reaches the acting player.
	TargetSelf Target = "SELF"
	// TargetAllyOne reaches one selected player.
	TargetAllyOne Target = "ALLY_ONE"
	// TargetAllyAll reaches every player.
	TargetAllyAll Target = "ALLY_ALL"
	// TargetAllySide reaches the players' side as a whole.
	TargetAllySide Target = "ALLY_SIDE"
	// TargetEnemyOne reaches one selected enemy, subject to taunt and confusion.
	TargetEnemyOne Target = "ENEMY_ONE"
	// TargetEnemyAll reaches every enemy.
	TargetEnemyAll Target = "ENEMY_ALL"
	// TargetEnemySide reaches the enemies' side as a whole.
	TargetEnemySide Target = "ENEMY_SIDE"
	// TargetAnyOne reaches one selected combatant of either side.
	TargetAnyOne Target = "ANY_ONE"
)

var knownTargets = map[Target]struct{}{
	TargetNone:      {},
	TargetSelf:      {},
	TargetAllyOne:   {},
	TargetAllyAll:   {},
	TargetAllySide:  {},
	TargetEnemyOne:  {},
	TargetEnemyAll:  {},
	TargetEnemySide: {},
	TargetAnyOne:    {},
}

// ParseTarget converts a catalog string into a Target.
func ParseTarget(raw string) (Target, error) {
	t := Target(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" {
		return TargetNone, nil
	}
	if _, ok := knownTargets[t]; !ok {
		return TargetNone, fmt.Errorf("unknown target %q", raw)
	}
	return t, nil
}

// RequiresSelection reports whether the caller must name exactly one target.
func (t Target) RequiresSelection() bool {
	return t == TargetAllyOne || t == TargetEnemyOne || t == TargetAnyOne
}

// ReachesAllies reports whether the target resolves to players only.
func (t Target) ReachesAllies() bool {
	return t == TargetAllyOne || t == TargetAllyAll || t == TargetAllySide
}

// ReachesEnemies reports whether the target resolves to enemies only.
func (t Target) ReachesEnemies() bool {
	return t == TargetEnemyOne || t == TargetEnemyAll || t == TargetEnemySide
}

// FormatKeys renders actor keys as a bracketed, comma separated list.
func FormatKeys(keys []string) string {
	return "[" + strings.Join(keys, ", ") + "]"
}

// JoinKeys renders actor keys separated by commas only.
func JoinKeys(keys []string) string {
	return strings.Join(keys, ",")
}
