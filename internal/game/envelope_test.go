package game

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecodesCommands(t *testing.T) {
	card := uuid.New().String()
	cmdID := uuid.New()

	env, err := ParseEnvelope([]byte(`{
		"type": " play_card ",
		"commandId": "` + cmdID.String() + `",
		"expectedVersion": 4,
		"playerId": "P1",
		"cardId": "` + card + `",
		"targetEnemyIds": ["E1"]
	}`))
	require.NoError(t, err)

	cmd, err := env.Command(9)
	require.NoError(t, err)
	play, ok := cmd.(PlayCardCommand)
	require.True(t, ok)
	assert.Equal(t, cmdID, play.ID)
	assert.Equal(t, int64(4), play.ExpectedVersion)
	assert.Equal(t, PlayerID("P1"), play.PlayerID)
	assert.Equal(t, CardInstID(card), play.CardID)
	assert.Equal(t, []TargetRef{EnemyRef{ID: "E1"}}, play.Selection.Targets)
}

func TestEnvelopeDefaults(t *testing.T) {
	cmd, err := Envelope{Type: "DRAW", PlayerID: "P1"}.Command(3)
	require.NoError(t, err)
	draw := cmd.(DrawCommand)
	assert.Equal(t, 1, draw.Count)
	assert.Equal(t, int64(3), draw.ExpectedVersion)
	assert.NotEqual(t, uuid.Nil, draw.ID)
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		msg  string
	}{
		{"missing type", Envelope{PlayerID: "P1"}, "type is required"},
		{"missing player", Envelope{Type: "END_TURN"}, "playerId is required"},
		{"bad command id", Envelope{Type: "END_TURN", PlayerID: "P1", CommandID: "x"}, "invalid commandId uuid"},
		{"swap arity", Envelope{Type: "HAND_SWAP", PlayerID: "P1"}, "discardIds must have exactly 1 id for HAND_SWAP"},
		{"missing card", Envelope{Type: "PLAY_CARD", PlayerID: "P1"}, "cardId is required"},
		{"bad card", Envelope{Type: "PLAY_CARD", PlayerID: "P1", CardID: "nope"}, "invalid cardId uuid: nope"},
		{"unknown", Envelope{Type: "DANCE", PlayerID: "P1"}, "unknown command type: DANCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.env.Command(0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadEnvelope))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := ParseEnvelope([]byte("{"))
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestEnvelopeOfRoundTrips(t *testing.T) {
	meta := CommandMeta{ID: uuid.New(), ExpectedVersion: 12}
	a, b := CardInstID(uuid.New().String()), CardInstID(uuid.New().String())
	cmds := []Command{
		StartCombatCommand{CommandMeta: meta, GMID: "gm"},
		DrawCommand{CommandMeta: meta, PlayerID: "P1", Count: 2},
		EndTurnCommand{CommandMeta: meta, PlayerID: "P1"},
		HandSwapCommand{CommandMeta: meta, PlayerID: "P1", DiscardID: a},
		PlayCardCommand{CommandMeta: meta, PlayerID: "P1", CardID: a, Selection: TargetSelection{Targets: []TargetRef{PlayerRef{ID: "P2"}}}},
		UseEXCommand{CommandMeta: meta, PlayerID: "P1", Selection: TargetSelection{Targets: []TargetRef{EnemyRef{ID: "E1"}}}},
		DiscardToHandLimitCommand{CommandMeta: meta, PlayerID: "P1", DiscardIDs: []CardInstID{a, b}},
	}
	for _, cmd := range cmds {
		data, err := EnvelopeOf(cmd).Marshal()
		require.NoError(t, err)
		env, err := ParseEnvelope(data)
		require.NoError(t, err)
		back, err := env.Command(0)
		require.NoError(t, err)
		assert.Equal(t, cmd, back, string(cmd.Type()))
	}
}
