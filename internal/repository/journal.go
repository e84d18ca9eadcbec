// Package repository persists session journals: the session header and
// the ordered roster changes and accepted commands needed to rebuild it.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a session has no journal.
	ErrNotFound = errors.New("journal not found")
	// ErrSequenceConflict is returned when an entry does not extend the
	// journal by exactly one.
	ErrSequenceConflict = errors.New("journal sequence conflict")
)

// SessionRecord is the journal header written once per session.
type SessionRecord struct {
	ID        uuid.UUID
	Code      string
	Seed      int64
	GMID      string
	CreatedAt time.Time
}

// Entry is one journaled step. Seq starts at 1 and has no gaps. Version is
// the state version after the step; roster steps leave it unchanged.
// Checksum is the state digest after the step.
type Entry struct {
	SessionID   uuid.UUID
	Seq         int64
	Kind        game.ReplayStepKind
	Version     int64
	CommandID   string
	CommandType string
	Payload     []byte
	Checksum    string
	RecordedAt  time.Time
}

// Journal stores session journals. Implementations must be safe for
// concurrent use.
type Journal interface {
	CreateSession(ctx context.Context, rec SessionRecord) error
	Append(ctx context.Context, entry Entry) error
	Load(ctx context.Context, sessionID uuid.UUID) (SessionRecord, []Entry, error)
	Close() error
}

type joinPayload struct {
	PlayerID string     `json:"playerId"`
	Deck     []string   `json:"deck"`
	EX       string     `json:"ex,omitempty"`
	Stats    game.Stats `json:"stats"`
}

type spawnPayload struct {
	EnemyID string `json:"enemyId"`
	MaxHP   int    `json:"maxHp"`
}

// JoinEntry builds the journal entry for a player join.
func JoinEntry(sessionID uuid.UUID, seq int64, s *game.GameState, pid game.PlayerID, lo game.Loadout) (Entry, error) {
	p := joinPayload{PlayerID: string(pid), EX: string(lo.EX), Stats: lo.Stats}
	for _, def := range lo.Deck {
		p.Deck = append(p.Deck, string(def))
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return Entry{}, fmt.Errorf("encode join payload: %w", err)
	}
	return newEntry(sessionID, seq, game.StepJoin, s, "", "", payload), nil
}

// SpawnEntry builds the journal entry for an enemy spawn.
func SpawnEntry(sessionID uuid.UUID, seq int64, s *game.GameState, eid game.EnemyID, maxHP int) (Entry, error) {
	payload, err := json.Marshal(spawnPayload{EnemyID: string(eid), MaxHP: maxHP})
	if err != nil {
		return Entry{}, fmt.Errorf("encode spawn payload: %w", err)
	}
	return newEntry(sessionID, seq, game.StepSpawn, s, "", "", payload), nil
}

// CommandEntry builds the journal entry for an accepted command. s must be
// the state after the command.
func CommandEntry(sessionID uuid.UUID, seq int64, s *game.GameState, cmd game.Command) (Entry, error) {
	payload, err := game.EnvelopeOf(cmd).Marshal()
	if err != nil {
		return Entry{}, fmt.Errorf("encode command payload: %w", err)
	}
	return newEntry(sessionID, seq, game.StepCommand, s, cmd.Meta().ID.String(), string(cmd.Type()), payload), nil
}

func newEntry(sessionID uuid.UUID, seq int64, kind game.ReplayStepKind, s *game.GameState, cmdID, cmdType string, payload []byte) Entry {
	return Entry{
		SessionID:   sessionID,
		Seq:         seq,
		Kind:        kind,
		Version:     s.Version,
		CommandID:   cmdID,
		CommandType: cmdType,
		Payload:     payload,
		Checksum:    game.ComputeChecksum(s).Hash,
		RecordedAt:  time.Now().UTC(),
	}
}

// BuildReplay turns a journal back into a replay.
func BuildReplay(rec SessionRecord, entries []Entry) (*game.Replay, error) {
	r := game.NewReplay(rec.ID, rec.Seed)
	for _, e := range entries {
		switch e.Kind {
		case game.StepJoin:
			var p joinPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return nil, fmt.Errorf("entry %d: decode join: %w", e.Seq, err)
			}
			lo := game.Loadout{EX: game.CardDefID(p.EX), Stats: p.Stats}
			for _, def := range p.Deck {
				lo.Deck = append(lo.Deck, game.CardDefID(def))
			}
			r.RecordJoin(game.PlayerID(p.PlayerID), lo)
		case game.StepSpawn:
			var p spawnPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return nil, fmt.Errorf("entry %d: decode spawn: %w", e.Seq, err)
			}
			r.RecordSpawn(game.EnemyID(p.EnemyID), p.MaxHP)
		case game.StepCommand:
			env, err := game.ParseEnvelope(e.Payload)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", e.Seq, err)
			}
			cmd, err := env.Command(e.Version - 1)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", e.Seq, err)
			}
			r.RecordCommand(cmd)
		default:
			return nil, fmt.Errorf("entry %d: unknown kind %q", e.Seq, e.Kind)
		}
	}
	return r, nil
}
