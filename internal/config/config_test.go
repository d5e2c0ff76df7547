package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60, cfg.Dedup.WindowMinutes)
	assert.Equal(t, 30*time.Minute, cfg.ResultCache.TTL())
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.Equal(t, 8*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, 10*time.Second, cfg.Evidence.Timeout)
	assert.InDelta(t, 500.0, cfg.Thresholds.LatencyMS, 0.001)
	assert.InDelta(t, 0.01, cfg.Thresholds.ErrorRate, 0.0001)
	assert.Len(t, cfg.MonitoredServices, 5)
	assert.Equal(t, "0 9 * * *", cfg.Digest.Schedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEDUP_WINDOW_MINUTES", "15")
	t.Setenv("RESULT_CACHE_BACKEND", "redis")
	t.Setenv("MONITORED_SERVICES", "checkout,search")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("AI_API_KEY", "secret")
	t.Setenv("EVIDENCE_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Dedup.WindowMinutes)
	assert.Equal(t, "redis", cfg.ResultCache.Backend)
	assert.Equal(t, []string{"checkout", "search"}, cfg.MonitoredServices)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "secret", cfg.GenAI.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Evidence.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	content := "ledger:\n  driver: sqlite\n  sqlite_path: /tmp/ledger.db\nthresholds:\n  latency_ms: 250\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.Ledger.SQLitePath)
	assert.InDelta(t, 250.0, cfg.Thresholds.LatencyMS, 0.001)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
