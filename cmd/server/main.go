package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dueltower/duel-tower-server/internal/config"
	"github.com/dueltower/duel-tower-server/internal/content"
	"github.com/dueltower/duel-tower-server/internal/game"
	"github.com/dueltower/duel-tower-server/internal/repository"
	"github.com/dueltower/duel-tower-server/internal/server"
	"github.com/dueltower/duel-tower-server/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting duel tower server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("duel tower server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := content.Default()
	if err != nil {
		return err
	}
	logger.Info("content catalog loaded",
		zap.Int("cards", len(catalog.CardIDs())),
		zap.Strings("statuses", catalog.StatusIDs()),
		zap.Strings("keywords", catalog.KeywordIDs()),
	)

	journal, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()
	logger.Info("journal opened", zap.String("driver", cfg.Storage.Driver))

	if dir := cfg.Replay.Directory; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create replay directory: %w", err)
		}
	}
	recorder := game.NewReplayRecorder(logger, cfg.Replay.Directory)

	sessions := session.NewManager(catalog, journal, recorder, session.Config{
		MaxSessions:    cfg.Server.MaxSessions,
		DedupeCapacity: cfg.Engine.DedupeCapacity,
	}, logger)
	defer sessions.CloseAll()

	grpcServer, healthServer := server.NewGRPCServer(cfg.Server.GRPC, sessions, version, logger)
	wsServer := server.NewWebSocketServer(cfg.Server.WebSocket, sessions, logger)

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	wsLis, err := net.Listen("tcp", cfg.Server.WebSocket.Address)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen websocket: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		return grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		return wsServer.Serve(wsLis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully...")

		healthServer.SetServingStatus(server.CombatServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("websocket shutdown", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	logger.Info("duel tower server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)
	return g.Wait()
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
