package content

import (
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/game"
)

// Keyword ids.
const (
	KeywordExcluded  = "EXCLUDED"
	KeywordImmovable = "IMMOVABLE"
)

// Keywords returns every keyword blueprint.
func Keywords() []game.KeywordBlueprint {
	return []game.KeywordBlueprint{
		{
			Definition: game.KeywordDefinition{
				ID:          KeywordExcluded,
				Name:        "Excluded",
				Description: "When used, this card is excluded for the rest of the combat instead of going to the grave.",
			},
			Effect: excluded{},
		},
		{
			Definition: game.KeywordDefinition{
				ID:          KeywordImmovable,
				Name:        "Immovable",
				Description: "This card cannot be discarded from the hand.",
			},
			Effect: immovable{},
		},
	}
}

// excluded sends played or destroyed cards to EXCLUDED instead of GRAVE.
// A used EX card carrying it cannot be activated again.
type excluded struct {
	game.NoopKeywordEffect
}

func (excluded) OverrideMoveDestination(rt game.KeywordRuntime, c game.MoveCtx, current game.Zone) game.Zone {
	if rt.Param == 0 || current != game.ZoneGrave {
		return current
	}
	if c.Reason == game.MovePlay || c.Reason == game.MoveDestroy {
		return game.ZoneExcluded
	}
	return current
}

func (excluded) OverrideEXActivatable(_ game.KeywordRuntime, c game.EXActivationCtx, current bool) bool {
	if c.EXCard && c.Reason == game.EXUsed {
		return false
	}
	return current
}

type immovable struct {
	game.NoopKeywordEffect
}

func (immovable) BlocksDiscard(game.KeywordRuntime, game.DiscardCtx) bool { return true }

func (immovable) ValidateDiscard(_ game.KeywordRuntime, c game.DiscardCtx) []string {
	return []string{fmt.Sprintf("cannot discard an immovable card: %s", c.CardID)}
}
