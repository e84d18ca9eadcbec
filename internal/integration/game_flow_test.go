package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/repository"
	"github.com/dueltower/duel-tower-server/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	t    *testing.T
	ctx  context.Context
	m    *session.Manager
	code string
}

func (h *harness) view() game.StateView {
	h.t.Helper()
	v, err := h.m.Snapshot(h.code)
	require.NoError(h.t, err)
	return v
}

func (h *harness) apply(env game.Envelope) session.ApplyResult {
	h.t.Helper()
	res, err := h.m.Apply(h.ctx, h.code, env)
	require.NoError(h.t, err)
	return res
}

func (h *harness) mustApply(env game.Envelope) session.ApplyResult {
	h.t.Helper()
	res := h.apply(env)
	require.True(h.t, res.Accepted, "%s rejected: %v", env.Type, res.Errors)
	return res
}

// takeTurn resolves any pending discard, plays Basic Attack on E1 while AP
// allows and ends the turn unless the combat is over.
func (h *harness) takeTurn(pid string) {
	h.t.Helper()
	v := h.view()
	ps := v.Players[0]

	if pd := ps.PendingDecision; pd != nil {
		require.NotNil(h.t, pd.Limit)
		excess := len(ps.Hand) - *pd.Limit
		var discard []string
		for _, id := range ps.Hand {
			if len(discard) == excess {
				break
			}
			if v.Cards[id].DefID != string(content.CardBasicAttack) {
				discard = append(discard, id)
			}
		}
		for _, id := range ps.Hand {
			if len(discard) == excess {
				break
			}
			if v.Cards[id].DefID == string(content.CardBasicAttack) {
				discard = append(discard, id)
			}
		}
		h.mustApply(game.Envelope{Type: "DISCARD_TO_HAND_LIMIT", PlayerID: pid, DiscardIDs: discard})
		v = h.view()
		ps = v.Players[0]
	}

	for _, id := range ps.Hand {
		if v.Cards[id].DefID != string(content.CardBasicAttack) {
			continue
		}
		if h.view().Players[0].AP < 1 || h.view().Combat.Phase == "END" {
			break
		}
		h.mustApply(game.Envelope{Type: "PLAY_CARD", PlayerID: pid, CardID: id, TargetEnemyIDs: []string{"E1"}})
	}

	if h.view().Combat.Phase != "END" {
		h.mustApply(game.Envelope{Type: "END_TURN", PlayerID: pid})
	}
}

func TestCombatToVictoryAndJournalRebuild(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	journal, err := repository.OpenSQLiteJournal(filepath.Join(t.TempDir(), "tower.db"), logger)
	require.NoError(t, err)
	defer journal.Close()

	m := session.NewManager(content.MustDefault(), journal, nil, session.Config{MaxSessions: 4, DedupeCapacity: 256}, logger)
	info, err := m.Create(ctx, "gm")
	require.NoError(t, err)
	h := &harness{t: t, ctx: ctx, m: m, code: info.Code}

	require.NoError(t, m.Join(ctx, info.Code, "P1", game.Stats{Body: 5, Skill: 5, Sense: 2, Will: 0}))
	require.NoError(t, m.SpawnEnemy(ctx, info.Code, "E1", 50))
	h.mustApply(game.Envelope{Type: "START_COMBAT", PlayerID: "gm"})

	updates, cancel, err := m.Subscribe(info.Code)
	require.NoError(t, err)
	defer cancel()
	go func() {
		for range updates {
		}
	}()

	for i := 0; i < 40 && h.view().Combat.Phase != "END"; i++ {
		h.takeTurn("P1")
		requireZonesAccountedFor(t, h.view())
	}

	v := h.view()
	require.Equal(t, "END", v.Combat.Phase, "combat should end within 40 turns")
	assert.Equal(t, 0, v.Enemies[0].HP)
	assert.Equal(t, v.Players[0].MaxHP, v.Players[0].HP, "enemies never act")

	// Turn-bound commands are refused once the combat is over.
	res := h.apply(game.Envelope{Type: "END_TURN", PlayerID: "P1"})
	assert.False(t, res.Accepted)
	assert.Equal(t, []string{"combat ended"}, res.Errors)

	rec, entries, err := journal.Load(ctx, info.ID)
	require.NoError(t, err)
	replay, err := repository.BuildReplay(rec, entries)
	require.NoError(t, err)
	state, _, err := replay.Run(content.MustDefault(), logger)
	require.NoError(t, err)

	want, err := m.Checksum(info.Code)
	require.NoError(t, err)
	assert.Equal(t, want, game.ComputeChecksum(state))
	assert.Equal(t, v.Version, state.Version)
}

// requireZonesAccountedFor checks that the 13 cards of every player sit in
// exactly one zone list each and that the list matches the card's zone.
func requireZonesAccountedFor(t *testing.T, v game.StateView) {
	t.Helper()
	for _, p := range v.Players {
		zones := map[string][]string{
			"DECK":     p.Deck,
			"HAND":     p.Hand,
			"GRAVE":    p.Grave,
			"FIELD":    p.Field,
			"EXCLUDED": p.Excluded,
		}
		if p.EXCard != "" {
			zones["EX"] = []string{p.EXCard}
		}
		total := 0
		for zone, ids := range zones {
			for _, id := range ids {
				require.Equal(t, zone, v.Cards[id].Zone, "card %s", id)
			}
			total += len(ids)
		}
		require.Equal(t, 13, total)
	}
}
