package repository

import (
	"context"
	"fmt"

	"github.com/dueltower/duel-tower-server/internal/config"
	"go.uber.org/zap"
)

// Open returns the journal selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Journal, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryJournal(), nil
	case config.DriverPostgres:
		j, err := NewPostgresJournal(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return j, nil
	case config.DriverSQLite:
		j, err := OpenSQLiteJournal(cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
