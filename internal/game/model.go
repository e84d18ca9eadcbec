package game

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game/counters"
)

// Zone is a named container of card instances.
type Zone string

const (
	ZoneDeck     Zone = "DECK"
	ZoneHand     Zone = "HAND"
	ZoneGrave    Zone = "GRAVE"
	ZoneField    Zone = "FIELD"
	ZoneExcluded Zone = "EXCLUDED"
	ZoneEX       Zone = "EX"
)

// terminal zones make a token vanish instead of holding it.
func (z Zone) terminal() bool {
	switch z {
	case ZoneDeck, ZoneGrave, ZoneExcluded, ZoneEX:
		return true
	}
	return false
}

// CardType classifies cards for rules that care about it (stun, destruction).
type CardType string

const (
	CardTypeSkill CardType = "SKILL"
	CardTypeEX    CardType = "EX"
)

// Faction groups combatants for faction-scoped statuses.
type Faction string

const (
	FactionPlayers Faction = "PLAYERS"
	FactionEnemies Faction = "ENEMIES"
)

// Opponent returns the other faction.
func (f Faction) Opponent() Faction {
	if f == FactionPlayers {
		return FactionEnemies
	}
	return FactionPlayers
}

// CardInstance is one physical copy of a card definition.
type CardInstance struct {
	ID    CardInstID
	DefID CardDefID
	Owner PlayerID
	Zone  Zone
	// Statuses holds CARD scoped status stacks.
	Statuses *counters.Stacks
}

func newCardInstance(id CardInstID, def CardDefID, owner PlayerID, zone Zone) *CardInstance {
	return &CardInstance{ID: id, DefID: def, Owner: owner, Zone: zone, Statuses: counters.NewStacks()}
}

func (c *CardInstance) String() string {
	return fmt.Sprintf("%s(%s@%s)", c.ID, c.DefID, c.Zone)
}
