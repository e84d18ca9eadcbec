// Package content holds the built-in cards, statuses and keywords.
package content

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game"
)

// Default builds the frozen catalog of all built-in content.
func Default() (*game.Catalog, error) {
	cat, err := game.BuildCatalog(Cards(), Statuses(), Keywords())
	if err != nil {
		return nil, fmt.Errorf("build content catalog: %w", err)
	}
	return cat, nil
}

// MustDefault is Default for tests and tools; it panics on a broken catalog.
func MustDefault() *game.Catalog {
	cat, err := Default()
	if err != nil {
		panic(err)
	}
	return cat
}

// DefaultDeck is three copies of each basic card.
func DefaultDeck() []game.CardDefID {
	basics := []game.CardDefID{CardBasicAttack, CardBasicRecovery, CardBasicGuard, CardBasicCurse}
	deck := make([]game.CardDefID, 0, len(basics)*3)
	for _, id := range basics {
		for i := 0; i < 3; i++ {
			deck = append(deck, id)
		}
	}
	return deck
}

// DefaultLoadout is the default deck with Bandage Wrap in the EX slot.
func DefaultLoadout(stats game.Stats) game.Loadout {
	return game.Loadout{
		Deck:  DefaultDeck(),
		EX:    CardBandageWrap,
		Stats: stats,
	}
}
