package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsPerService(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVICE_NAME", "ledger-service")

	cfg := Load()
	assert.Equal(t, "8082", cfg.HTTPPort)
	assert.Equal(t, "9098", cfg.MetricsPort)
	assert.Equal(t, "ledger_events", cfg.TopicLedgerEvents)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name: odds-service
db_driver: SQLite
sqlite_path: /tmp/ledger.db
board_cache_ttl: 5s
log_max_backups: 7
cors_origins:
  - http://a.test
  - http://b.test
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SQLITE_PATH", "/data/override.db")

	cfg := Load()
	assert.Equal(t, "odds-service", cfg.ServiceName)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/data/override.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.BoardCacheTTL)
	assert.Equal(t, 7, cfg.LogMaxBackups)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestLoadIgnoresBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("LOG_MAX_SIZE_MB", "big")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 100, cfg.LogMaxSizeMB)
}
