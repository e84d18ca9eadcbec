// Command replay-verify rebuilds a session from its journal and checks the
// rebuilt state against the checksums recorded when the session ran.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dueltower/duel-tower-server/internal/config"
	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	sessionID  = flag.String("session", "", "session id to verify")
	everyStep  = flag.Bool("every-step", false, "verify the checksum after every journal entry, not just the last")
)

var errDiverged = errors.New("replay diverged")

type report struct {
	SessionID uuid.UUID
	Entries   int
	Checksum  string
}

func main() {
	flag.Parse()

	id, err := uuid.Parse(*sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -session: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	journal, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open journal", zap.Error(err))
	}
	defer journal.Close()

	rep, err := verify(ctx, journal, content.MustDefault(), id, *everyStep, logger)
	if err != nil {
		logger.Error("verification failed", zap.String("session_id", id.String()), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("journal verified",
		zap.String("session_id", rep.SessionID.String()),
		zap.Int("entries", rep.Entries),
		zap.String("checksum", rep.Checksum),
	)
}

// verify replays the journal of id. With everyStep it rebuilds every
// prefix, which pins down the first entry that diverges.
func verify(ctx context.Context, journal repository.Journal, catalog *game.Catalog, id uuid.UUID, everyStep bool, logger *zap.Logger) (report, error) {
	rec, entries, err := journal.Load(ctx, id)
	if err != nil {
		return report{}, err
	}
	if len(entries) == 0 {
		return report{SessionID: id}, nil
	}

	check := func(n int) (string, error) {
		replay, err := repository.BuildReplay(rec, entries[:n])
		if err != nil {
			return "", err
		}
		state, _, err := replay.Run(catalog, logger)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errDiverged, err)
		}
		want := entries[n-1]
		got := game.ComputeChecksum(state)
		if got.Hash != want.Checksum {
			return "", fmt.Errorf("%w at entry %d (%s): checksum %s, journal has %s",
				errDiverged, want.Seq, want.Kind, got.Hash, want.Checksum)
		}
		if state.Version != want.Version {
			return "", fmt.Errorf("%w at entry %d: version %d, journal has %d",
				errDiverged, want.Seq, state.Version, want.Version)
		}
		return got.Hash, nil
	}

	start := len(entries)
	if everyStep {
		start = 1
	}
	var sum string
	for n := start; n <= len(entries); n++ {
		if sum, err = check(n); err != nil {
			return report{}, err
		}
	}
	return report{SessionID: id, Entries: len(entries), Checksum: sum}, nil
}
