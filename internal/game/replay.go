package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const replayFormatVersion = 1

// ReplayStepKind says what a replay step does.
type ReplayStepKind string

const (
	StepJoin    ReplayStepKind = "JOIN"
	StepSpawn   ReplayStepKind = "SPAWN"
	StepCommand ReplayStepKind = "COMMAND"
)

// ReplayStep is one roster change or one accepted command.
type ReplayStep struct {
	Kind ReplayStepKind

	PlayerID PlayerID
	Loadout  Loadout

	EnemyID EnemyID
	MaxHP   int

	Command Envelope
}

// Replay is everything needed to rebuild a session: its seed and the
// ordered roster changes and accepted commands. The same seed and steps
// always rebuild the same state.
type Replay struct {
	SessionID uuid.UUID
	Seed      int64
	Steps     []ReplayStep
	mu        sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(sessionID uuid.UUID, seed int64) *Replay {
	return &Replay{
		SessionID: sessionID,
		Seed:      seed,
		Steps:     make([]ReplayStep, 0),
	}
}

// RecordJoin appends a player join.
func (r *Replay) RecordJoin(pid PlayerID, lo Loadout) {
	r.append(ReplayStep{Kind: StepJoin, PlayerID: pid, Loadout: lo})
}

// RecordSpawn appends an enemy spawn.
func (r *Replay) RecordSpawn(eid EnemyID, maxHP int) {
	r.append(ReplayStep{Kind: StepSpawn, EnemyID: eid, MaxHP: maxHP})
}

// RecordCommand appends an accepted command.
func (r *Replay) RecordCommand(cmd Command) {
	r.append(ReplayStep{Kind: StepCommand, Command: EnvelopeOf(cmd)})
}

func (r *Replay) append(step ReplayStep) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Steps = append(r.Steps, step)
}

// Size returns the number of recorded steps.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Steps)
}

// Run rebuilds the session from scratch. Every recorded command must be
// accepted again; a rejection means the replay diverged.
func (r *Replay) Run(catalog *Catalog, logger *zap.Logger) (*GameState, []rules.Event, error) {
	r.mu.RLock()
	steps := append([]ReplayStep(nil), r.Steps...)
	r.mu.RUnlock()

	s := NewGameState(r.SessionID, r.Seed)
	engine := NewEngine(catalog, logger, 0)
	var events []rules.Event

	for i, step := range steps {
		switch step.Kind {
		case StepJoin:
			if _, err := JoinPlayer(s, catalog, step.PlayerID, step.Loadout); err != nil {
				return s, events, fmt.Errorf("step %d: join %s: %w", i, step.PlayerID, err)
			}
		case StepSpawn:
			if _, err := SpawnEnemy(s, step.EnemyID, step.MaxHP); err != nil {
				return s, events, fmt.Errorf("step %d: spawn %s: %w", i, step.EnemyID, err)
			}
		case StepCommand:
			cmd, err := step.Command.Command(s.Version)
			if err != nil {
				return s, events, fmt.Errorf("step %d: %w", i, err)
			}
			res, err := engine.Process(s, cmd)
			if err != nil {
				return s, events, fmt.Errorf("step %d: %w", i, err)
			}
			if !res.Accepted {
				return s, events, fmt.Errorf("step %d: replay diverged: %s rejected: %v", i, cmd.Type(), res.Errors)
			}
			events = append(events, res.Events...)
		default:
			return s, events, fmt.Errorf("step %d: unknown step kind %q", i, step.Kind)
		}
	}
	return s, events, nil
}

// SaveToFile saves the replay to a gzipped file named after the session.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.SessionID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)

	metadata := replayMetadata{
		SessionID: r.SessionID.String(),
		Timestamp: time.Now(),
		Version:   replayFormatVersion,
		Seed:      r.Seed,
		StepCount: len(r.Steps),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	for i := range r.Steps {
		if err := encoder.Encode(&r.Steps[i]); err != nil {
			return fmt.Errorf("failed to encode step %d: %w", i, err)
		}
	}

	return nil
}

// LoadReplayFromFile loads a replay written by SaveToFile.
func LoadReplayFromFile(directory string, sessionID uuid.UUID) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", sessionID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != replayFormatVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}
	id, err := uuid.Parse(metadata.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id in replay: %w", err)
	}

	replay := NewReplay(id, metadata.Seed)
	for i := 0; i < metadata.StepCount; i++ {
		var step ReplayStep
		if err := decoder.Decode(&step); err != nil {
			return nil, fmt.Errorf("failed to decode step %d: %w", i, err)
		}
		replay.Steps = append(replay.Steps, step)
	}

	return replay, nil
}

type replayMetadata struct {
	SessionID string
	Timestamp time.Time
	Version   int
	Seed      int64
	StepCount int
}

// ReplayRecorder keeps one replay per session and writes finished ones to
// disk. An empty save directory disables saving but not recording.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[uuid.UUID]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder saving into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[uuid.UUID]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a session and returns its replay.
func (rr *ReplayRecorder) StartRecording(sessionID uuid.UUID, seed int64) *Replay {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	replay := NewReplay(sessionID, seed)
	rr.replays[sessionID] = replay

	rr.logger.Info("started replay recording",
		zap.String("session_id", sessionID.String()),
	)
	return replay
}

// GetReplay returns the replay of a session.
func (rr *ReplayRecorder) GetReplay(sessionID uuid.UUID) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[sessionID]
	return replay, exists
}

// IsRecording reports whether a session is being recorded.
func (rr *ReplayRecorder) IsRecording(sessionID uuid.UUID) bool {
	_, ok := rr.GetReplay(sessionID)
	return ok
}

// SaveReplay writes a session's replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(sessionID uuid.UUID) error {
	rr.mu.Lock()
	replay, exists := rr.replays[sessionID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for session %s", sessionID)
	}
	delete(rr.replays, sessionID)
	rr.mu.Unlock()

	if rr.saveDir == "" {
		return nil
	}
	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("session_id", sessionID.String()),
		zap.Int("step_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay loads a saved replay.
func (rr *ReplayRecorder) LoadReplay(sessionID uuid.UUID) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, sessionID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded replay from disk",
		zap.String("session_id", sessionID.String()),
		zap.Int("step_count", replay.Size()),
	)
	return replay, nil
}

// ClearReplay forgets a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(sessionID uuid.UUID) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, sessionID)
	rr.logger.Debug("cleared replay from memory",
		zap.String("session_id", sessionID.String()),
	)
}
