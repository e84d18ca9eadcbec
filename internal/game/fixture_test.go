package game_test

import (
	"testing"

	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	cardImmovable game.CardDefID = "T_IMMOVABLE"
	cardExcluded  game.CardDefID = "T_EXCLUDED"
)

var fixtureSession = uuid.NewSHA1(uuid.NameSpaceOID, []byte("duel-tower-fixture"))

type noopCard struct{}

func (noopCard) Validate(*game.EffectContext) []string { return nil }
func (noopCard) Resolve(*game.EffectContext)            {}

// testCatalog is the built-in content plus two keyword carrying test cards.
func testCatalog(t *testing.T) *game.Catalog {
	t.Helper()
	cards := append(content.Cards(),
		game.CardBlueprint{
			Definition: game.CardDefinition{
				ID:       cardImmovable,
				Name:     "Anchor",
				Type:     game.CardTypeSkill,
				Keywords: map[string]int{content.KeywordImmovable: 1},
			},
			Effect: noopCard{},
		},
		game.CardBlueprint{
			Definition: game.CardDefinition{
				ID:       cardExcluded,
				Name:     "Flash",
				Type:     game.CardTypeSkill,
				Keywords: map[string]int{content.KeywordExcluded: 1},
			},
			Effect: noopCard{},
		},
	)
	cat, err := game.BuildCatalog(cards, content.Statuses(), content.Keywords())
	require.NoError(t, err)
	return cat
}

type fixture struct {
	t      *testing.T
	cat    *game.Catalog
	engine *game.Engine
	state  *game.GameState
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	cat := testCatalog(t)
	return &fixture{
		t:      t,
		cat:    cat,
		engine: game.NewEngine(cat, zaptest.NewLogger(t), 0),
		state:  game.NewGameState(fixtureSession, seed),
	}
}

func (f *fixture) join(pid game.PlayerID, lo game.Loadout) *game.PlayerState {
	f.t.Helper()
	ps, err := game.JoinPlayer(f.state, f.cat, pid, lo)
	require.NoError(f.t, err)
	return ps
}

func (f *fixture) spawn(eid game.EnemyID, maxHP int) *game.EnemyState {
	f.t.Helper()
	es, err := game.SpawnEnemy(f.state, eid, maxHP)
	require.NoError(f.t, err)
	return es
}

func (f *fixture) meta() game.CommandMeta {
	return game.CommandMeta{ID: uuid.New(), ExpectedVersion: f.state.Version}
}

func (f *fixture) process(cmd game.Command) game.Result {
	f.t.Helper()
	res, err := f.engine.Process(f.state, cmd)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) accept(cmd game.Command) game.Result {
	f.t.Helper()
	res := f.process(cmd)
	require.True(f.t, res.Accepted, "rejected: %v", res.Errors)
	return res
}

func (f *fixture) start() game.Result {
	f.t.Helper()
	return f.accept(game.StartCombatCommand{CommandMeta: f.meta(), GMID: "gm"})
}

func (f *fixture) endTurn(pid game.PlayerID) game.Result {
	f.t.Helper()
	return f.accept(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: pid})
}

// forceIntoHand makes sure a card of def is in the player's hand by
// swapping it with the first hand card.
func (f *fixture) forceIntoHand(pid game.PlayerID, def game.CardDefID) game.CardInstID {
	f.t.Helper()
	ps := f.state.Player(pid)
	for _, id := range ps.Hand {
		if f.state.Card(id).DefID == def {
			return id
		}
	}
	for i, id := range ps.Deck {
		if f.state.Card(id).DefID != def {
			continue
		}
		out := ps.Hand[0]
		ps.Deck[i] = out
		f.state.Card(out).Zone = game.ZoneDeck
		ps.Hand[0] = id
		f.state.Card(id).Zone = game.ZoneHand
		return id
	}
	f.t.Fatalf("no %s in deck of %s", def, pid)
	return ""
}

func deckOf(def game.CardDefID, n int) []game.CardDefID {
	deck := make([]game.CardDefID, n)
	for i := range deck {
		deck[i] = def
	}
	return deck
}

func logLines(events []rules.Event) []string {
	var lines []string
	for _, e := range events {
		if l, ok := e.(rules.LogAppended); ok {
			lines = append(lines, l.Line)
		}
	}
	return lines
}

func enemy(id game.EnemyID) game.TargetSelection {
	return game.TargetSelection{Targets: []game.TargetRef{game.EnemyRef{ID: id}}}
}

func ally(id game.PlayerID) game.TargetSelection {
	return game.TargetSelection{Targets: []game.TargetRef{game.PlayerRef{ID: id}}}
}

// requireZonesConsistent checks that every card of every player sits in
// exactly the zone its instance records.
func requireZonesConsistent(t *testing.T, s *game.GameState) {
	t.Helper()
	for _, pid := range s.PlayerOrder {
		ps := s.Players[pid]
		zones := map[game.Zone][]game.CardInstID{
			game.ZoneDeck:     ps.Deck,
			game.ZoneHand:     ps.Hand,
			game.ZoneGrave:    ps.Grave,
			game.ZoneField:    ps.Field,
			game.ZoneExcluded: ps.Excluded,
		}
		if ps.EXCard != "" {
			zones[game.ZoneEX] = []game.CardInstID{ps.EXCard}
		}
		seen := map[game.CardInstID]bool{}
		for zone, ids := range zones {
			for _, id := range ids {
				require.False(t, seen[id], "%s held twice", id)
				seen[id] = true
				ci := s.Card(id)
				require.NotNil(t, ci, "%s missing", id)
				require.Equal(t, zone, ci.Zone, "%s zone", id)
				require.Equal(t, pid, ci.Owner)
			}
		}
	}
}
