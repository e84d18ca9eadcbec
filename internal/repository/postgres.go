package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/config"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS combat_sessions (
	id          UUID PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	seed        BIGINT NOT NULL,
	gm_id       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS combat_journal (
	session_id   UUID NOT NULL REFERENCES combat_sessions(id) ON DELETE CASCADE,
	seq          BIGINT NOT NULL,
	kind         TEXT NOT NULL,
	version      BIGINT NOT NULL,
	command_id   TEXT NOT NULL,
	command_type TEXT NOT NULL,
	payload      JSONB NOT NULL,
	checksum     TEXT NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

const pgUniqueViolation = "23505"

// PostgresJournal stores journals in PostgreSQL through a pgx pool.
type PostgresJournal struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresJournal connects, verifies the connection and creates the
// schema if needed.
func NewPostgresJournal(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresJournal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	stats := pool.Stat()
	logger.Info("postgres journal ready",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return &PostgresJournal{pool: pool, logger: logger}, nil
}

func (p *PostgresJournal) CreateSession(ctx context.Context, rec SessionRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO combat_sessions (id, code, seed, gm_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Code, rec.Seed, rec.GMID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", rec.ID, err)
	}
	return nil
}

// Append inserts the entry after checking it extends the journal by one.
// The primary key catches a concurrent writer that passed the same check.
func (p *PostgresJournal) Append(ctx context.Context, entry Entry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var last int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM combat_journal WHERE session_id = $1`, entry.SessionID,
	).Scan(&last); err != nil {
		return fmt.Errorf("load journal head: %w", err)
	}
	if entry.Seq != last+1 {
		return fmt.Errorf("%w: got seq %d, want %d", ErrSequenceConflict, entry.Seq, last+1)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO combat_journal
			(session_id, seq, kind, version, command_id, command_type, payload, checksum, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.SessionID, entry.Seq, string(entry.Kind), entry.Version, entry.CommandID,
		entry.CommandType, entry.Payload, entry.Checksum, entry.RecordedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: seq %d already written", ErrSequenceConflict, entry.Seq)
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit journal entry: %w", err)
	}
	return nil
}

func (p *PostgresJournal) Load(ctx context.Context, sessionID uuid.UUID) (SessionRecord, []Entry, error) {
	var rec SessionRecord
	err := p.pool.QueryRow(ctx,
		`SELECT id, code, seed, gm_id, created_at FROM combat_sessions WHERE id = $1`, sessionID,
	).Scan(&rec.ID, &rec.Code, &rec.Seed, &rec.GMID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SessionRecord{}, nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT seq, kind, version, command_id, command_type, payload, checksum, recorded_at
		FROM combat_journal WHERE session_id = $1 ORDER BY seq`, sessionID,
	)
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("query journal %s: %w", sessionID, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		e := Entry{SessionID: sessionID}
		var kind string
		err := row.Scan(&e.Seq, &kind, &e.Version, &e.CommandID, &e.CommandType, &e.Payload, &e.Checksum, &e.RecordedAt)
		e.Kind = game.ReplayStepKind(kind)
		return e, err
	})
	if err != nil {
		return SessionRecord{}, nil, fmt.Errorf("scan journal %s: %w", sessionID, err)
	}
	return rec, entries, nil
}

func (p *PostgresJournal) Close() error {
	p.pool.Close()
	return nil
}
