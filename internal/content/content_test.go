package content

import (
	"testing"

	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []game.CardDefID{"C001", "C002", "C003", "C004", "EX901"}, cat.CardIDs())
	assert.Len(t, cat.StatusIDs(), 13)
	assert.Equal(t, []string{KeywordExcluded, KeywordImmovable}, cat.KeywordIDs())
	assert.Equal(t, []string{StatusTaunt}, cat.TargetRules())

	def, ok := cat.StatusDefinition(StatusBlessing)
	require.True(t, ok)
	assert.True(t, def.PersistsAfterCombat)
	assert.Equal(t, game.ScopeFaction, mustStatus(t, cat, StatusBarrier).Scope)
}

func TestDefaultDeck(t *testing.T) {
	deck := DefaultDeck()
	require.Len(t, deck, 12)

	counts := map[game.CardDefID]int{}
	for _, id := range deck {
		counts[id]++
	}
	for _, id := range []game.CardDefID{CardBasicAttack, CardBasicRecovery, CardBasicGuard, CardBasicCurse} {
		assert.Equal(t, 3, counts[id], id)
	}

	lo := DefaultLoadout(game.Stats{Body: 1})
	assert.Equal(t, CardBandageWrap, lo.EX)
	assert.Equal(t, 1, lo.Stats.Body)
}

func TestExcludedKeyword(t *testing.T) {
	kw := excluded{}
	on := game.KeywordRuntime{ID: KeywordExcluded, Param: 1}

	assert.Equal(t, game.ZoneExcluded, kw.OverrideMoveDestination(on, game.MoveCtx{Reason: game.MovePlay}, game.ZoneGrave))
	assert.Equal(t, game.ZoneExcluded, kw.OverrideMoveDestination(on, game.MoveCtx{Reason: game.MoveDestroy}, game.ZoneGrave))
	assert.Equal(t, game.ZoneGrave, kw.OverrideMoveDestination(on, game.MoveCtx{Reason: game.MoveDiscard}, game.ZoneGrave))
	assert.Equal(t, game.ZoneField, kw.OverrideMoveDestination(on, game.MoveCtx{Reason: game.MovePlay}, game.ZoneField))
	assert.Equal(t, game.ZoneGrave, kw.OverrideMoveDestination(game.KeywordRuntime{ID: KeywordExcluded}, game.MoveCtx{Reason: game.MovePlay}, game.ZoneGrave))

	assert.False(t, kw.OverrideEXActivatable(on, game.EXActivationCtx{EXCard: true, Reason: game.EXUsed}, true))
	assert.True(t, kw.OverrideEXActivatable(on, game.EXActivationCtx{EXCard: false, Reason: game.EXUsed}, true))
}

func TestImmovableKeyword(t *testing.T) {
	kw := immovable{}
	c := game.DiscardCtx{CardID: "card-1", Reason: game.DiscardHandSwap}

	assert.True(t, kw.BlocksDiscard(game.KeywordRuntime{}, c))
	assert.Equal(t, []string{"cannot discard an immovable card: card-1"}, kw.ValidateDiscard(game.KeywordRuntime{}, c))
}

func mustStatus(t *testing.T, cat *game.Catalog, id string) game.StatusDefinition {
	t.Helper()
	def, ok := cat.StatusDefinition(id)
	require.True(t, ok, id)
	return def
}
