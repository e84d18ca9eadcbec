package game_test

import (
	"strings"
	"testing"

	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineVersionMonotonicity(t *testing.T) {
	f := newFixture(t, 7)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)

	f.start()
	assert.Equal(t, int64(1), f.state.Version)

	before := game.ComputeChecksum(f.state)
	res := f.process(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: "nobody"})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"player not found"}, res.Errors)
	assert.Empty(t, res.Events)
	assert.Equal(t, int64(1), f.state.Version)
	assert.Equal(t, before, game.ComputeChecksum(f.state))

	f.endTurn("P1")
	f.endTurn("P1")
	assert.Equal(t, int64(3), f.state.Version)
}

func TestEngineBusSeesAcceptedEventsOnly(t *testing.T) {
	f := newFixture(t, 7)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)

	var all []rules.Event
	var turns []rules.TurnAdvanced
	f.engine.Bus().Subscribe(func(e rules.Event) { all = append(all, e) })
	f.engine.Bus().SubscribeTyped(rules.EventTurnAdvanced, func(e rules.Event) {
		turns = append(turns, e.(rules.TurnAdvanced))
	})

	res := f.start()
	assert.Equal(t, res.Events, all)
	require.NotEmpty(t, turns)
	assert.Equal(t, "PLAYER:P1", turns[len(turns)-1].ActorKey)

	seen := len(all)
	f.process(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: "nobody"})
	assert.Len(t, all, seen)
}

func TestEngineRejectsStaleVersion(t *testing.T) {
	f := newFixture(t, 7)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.start()

	res := f.process(game.EndTurnCommand{
		CommandMeta: game.CommandMeta{ID: uuid.New(), ExpectedVersion: 0},
		PlayerID:    "P1",
	})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"version mismatch"}, res.Errors)
}

func TestEngineRejectsDuplicateCommand(t *testing.T) {
	f := newFixture(t, 7)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)
	f.start()

	id := uuid.New()
	f.accept(game.EndTurnCommand{CommandMeta: game.CommandMeta{ID: id, ExpectedVersion: f.state.Version}, PlayerID: "P1"})

	// Same id, current version, different payload.
	res := f.process(game.DrawCommand{CommandMeta: game.CommandMeta{ID: id, ExpectedVersion: f.state.Version}, PlayerID: "P1", Count: 1})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"duplicate command"}, res.Errors)
}

func TestEngineDedupeWindowIsBounded(t *testing.T) {
	cat := testCatalog(t)
	eng := game.NewEngine(cat, nil, 1)
	s := game.NewGameState(fixtureSession, 7)
	_, err := game.JoinPlayer(s, cat, "P1", content.DefaultLoadout(game.Stats{}))
	require.NoError(t, err)

	first := uuid.New()
	res, err := eng.Process(s, game.DrawCommand{CommandMeta: game.CommandMeta{ID: first, ExpectedVersion: 0}, PlayerID: "P1", Count: 1})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	res, err = eng.Process(s, game.DrawCommand{CommandMeta: game.CommandMeta{ID: uuid.New(), ExpectedVersion: 1}, PlayerID: "P1", Count: 1})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	// The first id fell out of a window of one.
	res, err = eng.Process(s, game.DrawCommand{CommandMeta: game.CommandMeta{ID: first, ExpectedVersion: 2}, PlayerID: "P1", Count: 1})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestDamagePipelineOrdering(t *testing.T) {
	f := newFixture(t, 99)
	f.join("P1", content.DefaultLoadout(game.Stats{Body: 5, Skill: 5}))
	f.spawn("E1", 50)
	f.start()

	p1 := f.state.Player("P1")
	require.Equal(t, 10, p1.AttackPower())
	p1.Statuses.Set(content.StatusVigor, 3)
	f.state.Enemy("E1").Statuses.Set(content.StatusShield, 5)

	card := f.forceIntoHand("P1", content.CardBasicAttack)
	res := f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})

	e1 := f.state.Enemy("E1")
	assert.Equal(t, 42, e1.HP())
	assert.Equal(t, 0, e1.Statuses.Get(content.StatusShield))
	assert.Contains(t, logLines(res.Events), "P1 deals 8 to ENEMY:E1 (hp=42/50)")
	assert.Contains(t, logLines(res.Events), "P1 plays C001")
	assert.Equal(t, game.ZoneGrave, f.state.Card(card).Zone)
	assert.Equal(t, p1.MaxAP()-1, p1.AP())
}

func TestHandLimitCountsImmovableCards(t *testing.T) {
	f := newFixture(t, 5)
	f.join("P1", game.Loadout{Deck: deckOf(cardImmovable, 10)})
	f.spawn("E1", 30)
	f.start()

	res := f.accept(game.DrawCommand{CommandMeta: f.meta(), PlayerID: "P1", Count: 3})

	p1 := f.state.Player("P1")
	require.Len(t, p1.Hand, 8)
	assert.Nil(t, p1.Pending)
	for _, e := range res.Events {
		assert.NotEqual(t, rules.EventPendingDecisionSet, e.Type())
	}
}

func TestImmovableCardCannotBeSwapped(t *testing.T) {
	f := newFixture(t, 5)
	f.join("P1", game.Loadout{Deck: deckOf(cardImmovable, 10)})
	f.spawn("E1", 30)
	f.start()

	id := f.state.Player("P1").Hand[0]
	res := f.process(game.HandSwapCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardID: id})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"cannot discard an immovable card: " + string(id)}, res.Errors)
}

func TestHandLimitRaisesDiscardDecision(t *testing.T) {
	f := newFixture(t, 5)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)
	f.start()

	res := f.accept(game.DrawCommand{CommandMeta: f.meta(), PlayerID: "P1", Count: 2})
	p1 := f.state.Player("P1")
	require.Len(t, p1.Hand, 7)
	require.Equal(t, game.DiscardToHandLimit{Reason: "hand limit exceeded", Limit: 6}, p1.Pending)
	assert.Contains(t, res.Events, rules.PendingDecisionSet{PlayerID: "P1", DecisionType: game.DecisionDiscardToHandLimit, Reason: "hand limit exceeded"})

	blocked := f.process(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: "P1"})
	assert.Equal(t, []string{"pending decision exists"}, blocked.Errors)

	wrong := f.process(game.DiscardToHandLimitCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardIDs: []game.CardInstID{p1.Hand[0], p1.Hand[1]}})
	assert.False(t, wrong.Accepted)

	res = f.accept(game.DiscardToHandLimitCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardIDs: []game.CardInstID{p1.Hand[0]}})
	assert.Nil(t, p1.Pending)
	assert.Len(t, p1.Hand, 6)
	assert.Len(t, p1.Grave, 1)
	assert.Contains(t, res.Events, rules.PendingDecisionCleared{PlayerID: "P1", DecisionType: game.DecisionDiscardToHandLimit})
	requireZonesConsistent(t, f.state)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t, 1234)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)

	res := f.start()
	p1 := f.state.Player("P1")
	cs := f.state.Combat
	assert.Equal(t, 1, cs.Round)
	assert.Equal(t, rules.PhaseMain, cs.Phase)
	assert.Equal(t, game.TargetRef(game.PlayerRef{ID: "P1"}), cs.CurrentActor())
	assert.Contains(t, logLines(res.Events), "P1 draws 4 (combat start)")
	assert.Contains(t, logLines(res.Events), "P1 draws 1 (turn start)")
	assert.Len(t, p1.Hand, 5)
	assert.Len(t, cs.TurnOrder, 2)

	f.accept(game.UseEXCommand{CommandMeta: f.meta(), PlayerID: "P1", Selection: ally("P1")})
	assert.Equal(t, 2, p1.EXCooldownUntilRound)
	assert.True(t, p1.UsedEXThisTurn)

	f.endTurn("P1")
	assert.Equal(t, 2, cs.Round)
	assert.False(t, p1.UsedEXThisTurn)
	res = f.process(game.UseEXCommand{CommandMeta: f.meta(), PlayerID: "P1", Selection: ally("P1")})
	assert.Equal(t, []string{"ex on cooldown"}, res.Errors)

	f.endTurn("P1")
	assert.Equal(t, 3, cs.Round)
	assert.Equal(t, 0, p1.EXCooldownUntilRound)

	// Two turn start draws pushed the hand over the limit.
	require.NotNil(t, p1.Pending)
	f.accept(game.DiscardToHandLimitCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardIDs: []game.CardInstID{p1.Hand[0]}})

	f.accept(game.UseEXCommand{CommandMeta: f.meta(), PlayerID: "P1", Selection: ally("P1")})
	assert.Equal(t, 4, p1.EXCooldownUntilRound)

	assert.Equal(t, 13, p1.CardCount())
	requireZonesConsistent(t, f.state)
}

func TestVictoryIsIdempotent(t *testing.T) {
	f := newFixture(t, 3)
	f.join("P1", content.DefaultLoadout(game.Stats{Body: 5, Skill: 5}))
	f.spawn("E1", 1)
	f.start()

	card := f.forceIntoHand("P1", content.CardBasicAttack)
	res := f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})

	assert.Equal(t, rules.PhaseEnd, f.state.Combat.Phase)
	assert.Equal(t, game.OutcomePlayersWin, game.CheckOutcome(f.state))
	ends := 0
	for _, l := range logLines(res.Events) {
		if l == "combat ends: PLAYERS_WIN" {
			ends++
		}
	}
	assert.Equal(t, 1, ends)

	version := f.state.Version
	after := f.process(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: "P1"})
	assert.Equal(t, []string{"combat ended"}, after.Errors)
	after = f.process(game.DrawCommand{CommandMeta: f.meta(), PlayerID: "P1", Count: 1})
	assert.Equal(t, []string{"combat ended"}, after.Errors)
	assert.Equal(t, version, f.state.Version)
	assert.Empty(t, after.Events)
}

func TestCombatEndCleanupKeepsPersistentStatuses(t *testing.T) {
	f := newFixture(t, 3)
	f.join("P1", content.DefaultLoadout(game.Stats{Body: 5, Skill: 5}))
	f.spawn("E1", 1)
	f.start()

	p1 := f.state.Player("P1")
	p1.Statuses.Set(content.StatusBlessing, 1)
	p1.Statuses.Set(content.StatusShield, 4)
	f.state.Combat.FactionStatuses(game.FactionPlayers).Set(content.StatusBarrier, 2)

	card := f.forceIntoHand("P1", content.CardBasicAttack)
	f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})

	assert.Equal(t, 1, p1.Statuses.Get(content.StatusBlessing))
	assert.Equal(t, 0, p1.Statuses.Get(content.StatusShield))
	assert.Equal(t, 0, f.state.Combat.FactionStatuses(game.FactionPlayers).Get(content.StatusBarrier))
}

func TestStartCombatAfterEnd(t *testing.T) {
	f := newFixture(t, 3)
	f.join("P1", content.DefaultLoadout(game.Stats{Body: 5, Skill: 5}))
	f.spawn("E1", 1)
	f.start()

	res := f.process(game.StartCombatCommand{CommandMeta: f.meta(), GMID: "gm"})
	assert.Equal(t, []string{"combat already started"}, res.Errors)

	p1 := f.state.Player("P1")
	p1.Statuses.Set(content.StatusBlessing, 1)
	card := f.forceIntoHand("P1", content.CardBasicAttack)
	f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})
	require.True(t, f.state.CombatEnded())

	res = f.process(game.EndTurnCommand{CommandMeta: f.meta(), PlayerID: "P1"})
	assert.Equal(t, []string{"combat ended"}, res.Errors)

	// The ended combat is replaced by a fresh one.
	f.spawn("E2", 30)
	f.start()
	assert.False(t, f.state.CombatEnded())
	assert.Equal(t, 1, f.state.Combat.Round)
	assert.Equal(t, 1, p1.Statuses.Get(content.StatusBlessing))
}

func TestTauntForcesTarget(t *testing.T) {
	f := newFixture(t, 11)
	f.join("P1", content.DefaultLoadout(game.Stats{Body: 2}))
	f.spawn("E1", 30)
	f.spawn("E2", 30)
	f.start()
	f.state.Enemy("E2").Statuses.Set(content.StatusTaunt, 1)

	card := f.forceIntoHand("P1", content.CardBasicAttack)
	res := f.process(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"taunt: must target one of [ENEMY:E2]"}, res.Errors)

	res = f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E2")})
	assert.Equal(t, 0, f.state.Enemy("E2").Statuses.Get(content.StatusTaunt))
	assert.Contains(t, logLines(res.Events), "TAUNT forces target: ENEMY:E2 (remaining=0)")
	assert.Less(t, f.state.Enemy("E2").HP(), 30)
}

func TestConfusedPickOnEnemyStillHonorsTaunt(t *testing.T) {
	landed := map[bool]bool{}
	for seed := int64(1); seed <= 48; seed++ {
		f := newFixture(t, seed)
		f.join("P1", content.DefaultLoadout(game.Stats{Body: 2}))
		f.spawn("E1", 30)
		f.spawn("E2", 30)
		f.start()
		f.state.Enemy("E2").Statuses.Set(content.StatusTaunt, 1)
		p1 := f.state.Player("P1")
		p1.Statuses.Set(content.StatusConfusion, 1)

		card := f.forceIntoHand("P1", content.CardBasicAttack)
		res := f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E1")})

		lines := logLines(res.Events)
		picked := ""
		for _, l := range lines {
			if key, ok := strings.CutPrefix(l, "CONFUSION overrides target: "); ok {
				picked = key
			}
		}
		require.NotEmpty(t, picked, "seed %d", seed)

		onEnemy := strings.HasPrefix(picked, "ENEMY:")
		landed[onEnemy] = true
		if onEnemy {
			assert.Equal(t, 0, f.state.Enemy("E2").Statuses.Get(content.StatusTaunt), "seed %d", seed)
			assert.Contains(t, lines, "TAUNT forces target: ENEMY:E2 (remaining=0)", "seed %d", seed)
			assert.Less(t, f.state.Enemy("E2").HP(), 30, "seed %d", seed)
			assert.Equal(t, 30, f.state.Enemy("E1").HP(), "seed %d", seed)
			assert.Equal(t, p1.MaxHP(), p1.HP(), "seed %d", seed)
		} else {
			assert.Equal(t, "PLAYER:P1", picked, "seed %d", seed)
			assert.Equal(t, 1, f.state.Enemy("E2").Statuses.Get(content.StatusTaunt), "seed %d", seed)
			assert.Equal(t, 30, f.state.Enemy("E1").HP(), "seed %d", seed)
			assert.Equal(t, 30, f.state.Enemy("E2").HP(), "seed %d", seed)
			assert.Less(t, p1.HP(), p1.MaxHP(), "seed %d", seed)
		}
	}
	assert.True(t, landed[true], "no seed sent the confused attack at an enemy")
	assert.True(t, landed[false], "no seed sent the confused attack at an ally")
}

func TestTargetNotFound(t *testing.T) {
	f := newFixture(t, 11)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)
	f.start()

	card := f.forceIntoHand("P1", content.CardBasicAttack)
	res := f.process(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: enemy("E9")})
	assert.Equal(t, []string{"target not found: ENEMY:E9"}, res.Errors)

	res = f.process(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card, Selection: ally("P1")})
	assert.Equal(t, []string{"enemy(one enemy) target required"}, res.Errors)
}

func TestExcludedKeywordRedirectsPlayedCard(t *testing.T) {
	f := newFixture(t, 5)
	f.join("P1", game.Loadout{Deck: deckOf(cardExcluded, 8)})
	f.spawn("E1", 30)
	f.start()

	p1 := f.state.Player("P1")
	id := p1.Hand[0]
	res := f.accept(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: id})

	assert.Equal(t, game.ZoneExcluded, f.state.Card(id).Zone)
	assert.Equal(t, []game.CardInstID{id}, p1.Excluded)
	assert.Empty(t, p1.Grave)
	assert.Contains(t, res.Events, rules.CardsMoved{PlayerID: "P1", From: "HAND", To: "EXCLUDED", Count: 1})
	requireZonesConsistent(t, f.state)
}

func TestStatusTurnHooks(t *testing.T) {
	f := newFixture(t, 21)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)
	f.start()

	p1 := f.state.Player("P1")
	require.Equal(t, 20, p1.HP())
	p1.Statuses.Set(content.StatusPain, 5)
	p1.Statuses.Set(content.StatusShield, 2)
	p1.Statuses.Set(content.StatusStun, 1)
	p1.Statuses.Set(content.StatusPressure, 3)

	card := f.forceIntoHand("P1", content.CardBasicGuard)
	res := f.process(game.PlayCardCommand{CommandMeta: f.meta(), PlayerID: "P1", CardID: card})
	assert.Equal(t, []string{"not enough ap (need=4, have=3)", "stun: cannot play skill cards"}, res.Errors)

	f.endTurn("P1")

	// Pain: 5 through shield 2, then halved. Stun and pressure are gone.
	assert.Equal(t, 17, p1.HP())
	assert.Equal(t, 2, p1.Statuses.Get(content.StatusPain))
	assert.Equal(t, 0, p1.Statuses.Get(content.StatusShield))
	assert.Equal(t, 0, p1.Statuses.Get(content.StatusStun))
	assert.Equal(t, 0, p1.Statuses.Get(content.StatusPressure))
}

func TestHandSwap(t *testing.T) {
	f := newFixture(t, 8)
	f.join("P1", content.DefaultLoadout(game.Stats{}))
	f.spawn("E1", 30)
	f.start()

	p1 := f.state.Player("P1")
	id := p1.Hand[0]
	res := f.accept(game.HandSwapCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardID: id})
	assert.Equal(t, game.ZoneGrave, f.state.Card(id).Zone)
	assert.Len(t, p1.Hand, 5)
	assert.True(t, p1.SwappedThisTurn)
	assert.Contains(t, logLines(res.Events), "P1 hand swaps (discard 1, draw 1)")

	again := f.process(game.HandSwapCommand{CommandMeta: f.meta(), PlayerID: "P1", DiscardID: p1.Hand[0]})
	assert.Equal(t, []string{"hand swap already used this turn"}, again.Errors)
}
