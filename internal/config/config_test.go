package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, 1000, cfg.Server.MaxSessions)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 10000, cfg.Engine.DedupeCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Replay.Directory)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  grpc:
    address: "127.0.0.1:6000"
  websocket:
    allowed_origins: ["https://tower.example"]
storage:
  driver: sqlite
  sqlite:
    path: /tmp/tower.db
engine:
  dedupe_capacity: 64
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("DUELTOWER_LOGGING_LEVEL", "debug")
	t.Setenv("DUELTOWER_SERVER_MAX_SESSIONS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.Server.GRPC.Address)
	assert.Equal(t, []string{"https://tower.example"}, cfg.Server.WebSocket.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/tower.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 64, cfg.Engine.DedupeCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Server.MaxSessions)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{GRPC: GRPCConfig{MaxConcurrentStreams: 1}, MaxSessions: 1},
			Storage: StorageConfig{Driver: DriverMemory},
			Engine:  EngineConfig{DedupeCapacity: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: `unknown storage driver "mongo"`},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: "storage.postgres.url"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Storage.Driver = DriverSQLite }, wantErr: "storage.sqlite.path"},
		{name: "zero sessions", mutate: func(c *Config) { c.Server.MaxSessions = 0 }, wantErr: "max_sessions"},
		{name: "zero streams", mutate: func(c *Config) { c.Server.GRPC.MaxConcurrentStreams = 0 }, wantErr: "max_concurrent_streams"},
		{name: "negative dedupe", mutate: func(c *Config) { c.Engine.DedupeCapacity = -1 }, wantErr: "dedupe_capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
