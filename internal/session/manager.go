// Package session hosts combat sessions: it owns each session's state and
// engine, serializes its commands, journals what was accepted and fans
// results out to subscribers.
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/game/rules"
	"github.com/dueltower/duel-tower-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 8
	codeAttempts = 16
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPlayerIDRequired = errors.New("playerId is required")
	ErrSessionFaulted   = errors.New("session faulted")
	ErrSessionFull      = errors.New("session capacity reached")
	ErrCombatStarted    = errors.New("combat already started")
)

// Config bounds the manager.
type Config struct {
	MaxSessions    int
	DedupeCapacity int
}

// Manager owns every live session, keyed by join code.
type Manager struct {
	catalog  *game.Catalog
	journal  repository.Journal
	recorder *game.ReplayRecorder
	cfg      Config
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. A nil journal keeps journals in memory and
// a nil recorder records replays without writing them to disk.
func NewManager(catalog *game.Catalog, journal repository.Journal, recorder *game.ReplayRecorder, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = repository.NewMemoryJournal()
	}
	if recorder == nil {
		recorder = game.NewReplayRecorder(logger, "")
	}
	return &Manager{
		catalog:  catalog,
		journal:  journal,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session run by gmID.
func (m *Manager) Create(ctx context.Context, gmID string) (Info, error) {
	gmID = strings.TrimSpace(gmID)
	if gmID == "" {
		return Info{}, ErrPlayerIDRequired
	}
	seed, err := randomSeed()
	if err != nil {
		return Info{}, err
	}

	m.mu.Lock()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return Info{}, ErrSessionFull
	}
	code, err := m.uniqueCodeLocked()
	if err != nil {
		m.mu.Unlock()
		return Info{}, err
	}
	id := uuid.New()
	sess := &Session{
		id:          id,
		code:        code,
		gmID:        game.PlayerID(gmID),
		createdAt:   time.Now().UTC(),
		state:       game.NewGameState(id, seed),
		engine:      game.NewEngine(m.catalog, m.logger.With(zap.String("session_code", code)), m.cfg.DedupeCapacity),
		replay:      m.recorder.StartRecording(id, seed),
		subscribers: make(map[int]chan Update),
	}
	sess.engine.Bus().SubscribeTyped(rules.EventTurnAdvanced, func(ev rules.Event) {
		if t, ok := ev.(rules.TurnAdvanced); ok {
			m.logger.Debug("turn advanced",
				zap.String("session_code", code),
				zap.String("actor", t.ActorKey),
				zap.Int("round", t.Round),
			)
		}
	})
	// Reserve the code before the journal write so a concurrent Create
	// cannot take it.
	m.sessions[code] = sess
	m.mu.Unlock()

	rec := repository.SessionRecord{ID: id, Code: code, Seed: seed, GMID: gmID, CreatedAt: sess.createdAt}
	if err := m.journal.CreateSession(ctx, rec); err != nil {
		m.mu.Lock()
		delete(m.sessions, code)
		m.mu.Unlock()
		m.recorder.ClearReplay(id)
		return Info{}, fmt.Errorf("journal session: %w", err)
	}

	m.logger.Info("session created",
		zap.String("session_code", code),
		zap.String("session_id", id.String()),
		zap.String("gm_id", gmID),
	)
	return sess.info(), nil
}

// Get returns the session's description.
func (m *Manager) Get(code string) (Info, error) {
	sess, err := m.lookup(code)
	if err != nil {
		return Info{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Join adds a player with the default loadout and the given stats. Joining
// twice with the same id is a no-op.
func (m *Manager) Join(ctx context.Context, code, playerID string, stats game.Stats) error {
	pid := game.PlayerID(strings.TrimSpace(playerID))
	if pid == "" {
		return ErrPlayerIDRequired
	}
	sess, err := m.lookup(code)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.faulted != nil {
		return ErrSessionFaulted
	}
	if sess.state.Player(pid) != nil {
		return nil
	}
	if sess.state.CombatActive() {
		return ErrCombatStarted
	}

	lo := content.DefaultLoadout(stats)
	if _, err := game.JoinPlayer(sess.state, m.catalog, pid, lo); err != nil {
		return err
	}
	sess.replay.RecordJoin(pid, lo)

	entry, err := repository.JoinEntry(sess.id, sess.seq+1, sess.state, pid, lo)
	if err != nil {
		return m.fault(sess, err)
	}
	if err := m.append(ctx, sess, entry); err != nil {
		return err
	}

	m.logger.Info("player joined",
		zap.String("session_code", sess.code),
		zap.String("player_id", string(pid)),
	)
	return nil
}

// SpawnEnemy adds an enemy before combat. Spawning an existing id is a
// no-op.
func (m *Manager) SpawnEnemy(ctx context.Context, code, enemyID string, maxHP int) error {
	eid := game.EnemyID(strings.TrimSpace(enemyID))
	sess, err := m.lookup(code)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.faulted != nil {
		return ErrSessionFaulted
	}
	if eid != "" && sess.state.Enemy(eid) != nil {
		return nil
	}
	if sess.state.CombatActive() {
		return ErrCombatStarted
	}
	if _, err := game.SpawnEnemy(sess.state, eid, maxHP); err != nil {
		return err
	}
	sess.replay.RecordSpawn(eid, maxHP)

	entry, err := repository.SpawnEntry(sess.id, sess.seq+1, sess.state, eid, maxHP)
	if err != nil {
		return m.fault(sess, err)
	}
	if err := m.append(ctx, sess, entry); err != nil {
		return err
	}

	m.logger.Info("enemy spawned",
		zap.String("session_code", sess.code),
		zap.String("enemy_id", string(eid)),
		zap.Int("max_hp", maxHP),
	)
	return nil
}

// Apply runs one command envelope. Validation failures come back as a
// rejected result; the error is reserved for unknown or faulted sessions,
// undecodable envelopes and engine or journal failures.
func (m *Manager) Apply(ctx context.Context, code string, env game.Envelope) (ApplyResult, error) {
	sess, err := m.lookup(code)
	if err != nil {
		return ApplyResult{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.faulted != nil {
		return ApplyResult{}, ErrSessionFaulted
	}

	cmd, err := env.Command(sess.state.Version)
	if err != nil {
		return ApplyResult{}, err
	}
	if cmd.Type() == game.CommandStartCombat && game.PlayerID(strings.TrimSpace(env.PlayerID)) != sess.gmID {
		return ApplyResult{
			Errors:    []string{"gm only"},
			Version:   sess.state.Version,
			CommandID: cmd.Meta().ID.String(),
		}, nil
	}

	res, err := sess.engine.Process(sess.state, cmd)
	if err != nil {
		return ApplyResult{}, m.fault(sess, err)
	}

	out := ApplyResult{
		Accepted:  res.Accepted,
		Errors:    res.Errors,
		Events:    game.NewEventViews(res.Events),
		Version:   sess.state.Version,
		CommandID: cmd.Meta().ID.String(),
	}
	if !res.Accepted {
		return out, nil
	}

	sess.replay.RecordCommand(cmd)
	entry, err := repository.CommandEntry(sess.id, sess.seq+1, sess.state, cmd)
	if err != nil {
		return ApplyResult{}, m.fault(sess, err)
	}
	if err := m.append(ctx, sess, entry); err != nil {
		return ApplyResult{}, err
	}

	if dropped := sess.publish(Update{
		SessionCode: sess.code,
		Version:     sess.state.Version,
		CommandID:   out.CommandID,
		CommandType: cmd.Type(),
		PlayerID:    strings.TrimSpace(env.PlayerID),
		Events:      out.Events,
	}); dropped > 0 {
		m.logger.Warn("subscribers lagging, update dropped",
			zap.String("session_code", sess.code),
			zap.Int("dropped", dropped),
		)
	}
	return out, nil
}

// Snapshot renders the session's current state.
func (m *Manager) Snapshot(code string) (game.StateView, error) {
	sess, err := m.lookup(code)
	if err != nil {
		return game.StateView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return game.NewStateView(sess.code, sess.state), nil
}

// Checksum returns the digest of the session's current state.
func (m *Manager) Checksum(code string) (game.Checksum, error) {
	sess, err := m.lookup(code)
	if err != nil {
		return game.Checksum{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return game.ComputeChecksum(sess.state), nil
}

// Subscribe streams accepted commands of a session. The returned cancel
// func closes the channel; closing the session closes it too.
func (m *Manager) Subscribe(code string) (<-chan Update, func(), error) {
	sess, err := m.lookup(code)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.subscribe()
	return ch, cancel, nil
}

// Close ends a session: subscribers are closed and its replay is saved.
func (m *Manager) Close(code string) error {
	code = normalizeCode(code)
	m.mu.Lock()
	sess, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return m.shutdown(sess)
}

// CloseAll ends every session, saving what can be saved.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for code, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, code)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		if err := m.shutdown(sess); err != nil {
			m.logger.Warn("failed to save replay",
				zap.String("session_code", sess.code),
				zap.Error(err),
			)
		}
	}
}

func (m *Manager) shutdown(sess *Session) error {
	sess.mu.Lock()
	sess.closeSubscribers()
	sess.mu.Unlock()

	defer m.recorder.ClearReplay(sess.id)
	if err := m.recorder.SaveReplay(sess.id); err != nil {
		return fmt.Errorf("save replay %s: %w", sess.code, err)
	}
	m.logger.Info("session closed", zap.String("session_code", sess.code))
	return nil
}

func (m *Manager) lookup(code string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[normalizeCode(code)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// append journals entry. Must be called with sess.mu held. A failed write
// faults the session: its state is ahead of the journal.
func (m *Manager) append(ctx context.Context, sess *Session, entry repository.Entry) error {
	if err := m.journal.Append(ctx, entry); err != nil {
		return m.fault(sess, fmt.Errorf("journal append: %w", err))
	}
	sess.seq = entry.Seq
	return nil
}

// fault marks the session unusable. Must be called with sess.mu held.
func (m *Manager) fault(sess *Session, cause error) error {
	sess.faulted = cause
	m.logger.Error("session faulted",
		zap.String("session_code", sess.code),
		zap.Int64("version", sess.state.Version),
		zap.Error(cause),
	)
	return fmt.Errorf("%w: %w", ErrSessionFaulted, cause)
}

func (m *Manager) uniqueCodeLocked() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		if _, taken := m.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a session code")
}

func newCode() (string, error) {
	var b strings.Builder
	b.Grow(codeLength)
	base := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("generate session code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func randomSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return int64(binary.BigEndian.Uint64(buf[:]) >> 1), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
