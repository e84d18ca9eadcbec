package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dueltower/duel-tower-server/internal/config"
	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// journaledSession plays a short combat and returns the header and the
// entries it produced, in order.
func journaledSession(t *testing.T) (SessionRecord, []Entry, game.Checksum) {
	t.Helper()
	cat := content.MustDefault()
	rec := SessionRecord{
		ID:        uuid.New(),
		Code:      "ABCD2345",
		Seed:      99,
		GMID:      "gm",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	state := game.NewGameState(rec.ID, rec.Seed)
	engine := game.NewEngine(cat, zaptest.NewLogger(t), 0)

	var entries []Entry
	next := func() int64 { return int64(len(entries)) + 1 }

	lo := content.DefaultLoadout(game.Stats{Body: 3, Skill: 2, Sense: 2, Will: 1})
	_, err := game.JoinPlayer(state, cat, "P1", lo)
	require.NoError(t, err)
	e, err := JoinEntry(rec.ID, next(), state, "P1", lo)
	require.NoError(t, err)
	entries = append(entries, e)

	_, err = game.SpawnEnemy(state, "E1", 40)
	require.NoError(t, err)
	e, err = SpawnEntry(rec.ID, next(), state, "E1", 40)
	require.NoError(t, err)
	entries = append(entries, e)

	cmds := []game.Command{
		game.StartCombatCommand{CommandMeta: game.CommandMeta{ID: uuid.New(), ExpectedVersion: 0}, GMID: "gm"},
		game.EndTurnCommand{CommandMeta: game.CommandMeta{ID: uuid.New(), ExpectedVersion: 1}, PlayerID: "P1"},
	}
	for _, cmd := range cmds {
		res, err := engine.Process(state, cmd)
		require.NoError(t, err)
		require.True(t, res.Accepted, res.Errors)
		e, err = CommandEntry(rec.ID, next(), state, cmd)
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return rec, entries, game.ComputeChecksum(state)
}

func runJournalSuite(t *testing.T, j Journal) {
	ctx := context.Background()
	rec, entries, final := journaledSession(t)

	t.Run("missing session", func(t *testing.T) {
		_, _, err := j.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, j.CreateSession(ctx, rec))
	for _, e := range entries {
		require.NoError(t, j.Append(ctx, e))
	}

	t.Run("sequence gap", func(t *testing.T) {
		gap := entries[0]
		gap.Seq = int64(len(entries)) + 2
		assert.ErrorIs(t, j.Append(ctx, gap), ErrSequenceConflict)
	})

	t.Run("sequence replay", func(t *testing.T) {
		assert.ErrorIs(t, j.Append(ctx, entries[0]), ErrSequenceConflict)
	})

	t.Run("load and rebuild", func(t *testing.T) {
		gotRec, got, err := j.Load(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.Code, gotRec.Code)
		assert.Equal(t, rec.Seed, gotRec.Seed)
		assert.Equal(t, rec.GMID, gotRec.GMID)
		require.Len(t, got, len(entries))

		for i := range entries {
			assert.Equal(t, entries[i].Seq, got[i].Seq)
			assert.Equal(t, entries[i].Kind, got[i].Kind)
			assert.Equal(t, entries[i].Version, got[i].Version)
			assert.Equal(t, entries[i].CommandID, got[i].CommandID)
			assert.Equal(t, entries[i].Checksum, got[i].Checksum)
			assert.JSONEq(t, string(entries[i].Payload), string(got[i].Payload))
		}

		replay, err := BuildReplay(gotRec, got)
		require.NoError(t, err)
		assert.Equal(t, len(entries), replay.Size())

		state, _, err := replay.Run(content.MustDefault(), zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Equal(t, final, game.ComputeChecksum(state))
		assert.Equal(t, got[len(got)-1].Checksum, final.Hash)
	})
}

func TestMemoryJournal(t *testing.T) {
	runJournalSuite(t, NewMemoryJournal())
}

func TestSQLiteJournal(t *testing.T) {
	j, err := OpenSQLiteJournal(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	runJournalSuite(t, j)
}

func TestSQLiteJournalFile(t *testing.T) {
	path := t.TempDir() + "/journal.db"
	j, err := OpenSQLiteJournal(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec, entries, _ := journaledSession(t)
	ctx := context.Background()
	require.NoError(t, j.CreateSession(ctx, rec))
	require.NoError(t, j.Append(ctx, entries[0]))
	require.NoError(t, j.Close())

	reopened, err := OpenSQLiteJournal(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	_, got, err := reopened.Load(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, game.StepJoin, got[0].Kind)
}

func TestPostgresJournal(t *testing.T) {
	url := os.Getenv("DUELTOWER_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("DUELTOWER_TEST_POSTGRES_URL not set")
	}
	j, err := NewPostgresJournal(context.Background(), config.PostgresConfig{URL: url}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	runJournalSuite(t, j)
}

func TestOpenSelectsDriver(t *testing.T) {
	j, err := Open(context.Background(), config.StorageConfig{Driver: config.DriverMemory}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &MemoryJournal{}, j)

	j, err = Open(context.Background(), config.StorageConfig{Driver: config.DriverSQLite, SQLite: config.SQLiteConfig{Path: ":memory:"}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteJournal{}, j)
	require.NoError(t, j.Close())

	_, err = Open(context.Background(), config.StorageConfig{Driver: "mongo"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestBuildReplayRejectsUnknownKind(t *testing.T) {
	_, err := BuildReplay(SessionRecord{ID: uuid.New()}, []Entry{{Seq: 1, Kind: "TELEPORT"}})
	assert.ErrorContains(t, err, `unknown kind "TELEPORT"`)
}
