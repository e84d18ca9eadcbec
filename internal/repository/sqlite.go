package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS combat_sessions (
	id          TEXT PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	seed        INTEGER NOT NULL,
	gm_id       TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS combat_journal (
	session_id   TEXT NOT NULL REFERENCES combat_sessions(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	version      INTEGER NOT NULL,
	command_id   TEXT NOT NULL,
	command_type TEXT NOT NULL,
	payload      BLOB NOT NULL,
	checksum     TEXT NOT NULL,
	recorded_at  INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// SQLiteJournal stores journals in an embedded SQLite database.
type SQLiteJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteJournal opens the database at path and creates the schema if
// needed. ":memory:" opens a private in-memory database.
func OpenSQLiteJournal(path string, logger *zap.Logger) (*SQLiteJournal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	logger.Info("sqlite journal ready", zap.String("path", path))
	return &SQLiteJournal{db: db, logger: logger}, nil
}

func (s *SQLiteJournal) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO combat_sessions (id, code, seed, gm_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Code, rec.Seed, rec.GMID, rec.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteJournal) Append(ctx context.Context, entry Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM combat_sessions WHERE id = ?`, entry.SessionID.String(),
	).Scan(&exists); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, entry.SessionID)
	}

	var last int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM combat_journal WHERE session_id = ?`, entry.SessionID.String(),
	).Scan(&last); err != nil {
		return fmt.Errorf("load journal head: %w", err)
	}
	if entry.Seq != last+1 {
		return fmt.Errorf("%w: got seq %d, want %d", ErrSequenceConflict, entry.Seq, last+1)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO combat_journal
			(session_id, seq, kind, version, command_id, command_type, payload, checksum, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID.String(), entry.Seq, string(entry.Kind), entry.Version, entry.CommandID,
		entry.CommandType, entry.Payload, entry.Checksum, entry.RecordedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal entry: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) Load(ctx context.Context, sessionID uuid.UUID) (SessionRecord, []Entry, error) {
	var (
		rec       SessionRecord
		rawID     string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, seed, gm_id, created_at FROM combat_sessions WHERE id = ?`, sessionID.String(),
	).Scan(&rawID, &rec.Code, &rec.Seed, &rec.GMID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if rec.ID, err = uuid.Parse(rawID); err != nil {
		return SessionRecord{}, nil, fmt.Errorf("parse session id: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, version, command_id, command_type, payload, checksum, recorded_at
		FROM combat_journal WHERE session_id = ? ORDER BY seq`, sessionID.String(),
	)
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("query journal %s: %w", sessionID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e := Entry{SessionID: sessionID}
		var (
			kind       string
			recordedAt int64
		)
		if err := rows.Scan(&e.Seq, &kind, &e.Version, &e.CommandID, &e.CommandType, &e.Payload, &e.Checksum, &recordedAt); err != nil {
			return SessionRecord{}, nil, fmt.Errorf("scan journal %s: %w", sessionID, err)
		}
		e.Kind = game.ReplayStepKind(kind)
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return SessionRecord{}, nil, fmt.Errorf("iterate journal %s: %w", sessionID, err)
	}
	return rec, entries, nil
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
