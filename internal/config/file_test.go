package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	p := writeTempFile(t, "config.json", `{
		"app": {"hash_key": "hk", "token_duration": "2h"},
		"storage": {
			"primary": {"dsn": "postgres://localhost/mmudzi", "max_open_conns": 4, "conn_max_lifetime": "5m"},
			"secondary": {"dsn": "local.db"}
		},
		"arbiter": {"health_check_interval": "1m", "probe_timeout": 2000000000},
		"sync": {"enrolled_tables": ["members"]},
		"server": {"http_address": "localhost:8080", "request_timeout": "20s"},
		"workers": {"sync_interval": "10s", "shutdown_timeout": "3s"}
	}`)

	cfg, err := parseJSON(p)
	require.NoError(t, err)

	assert.Equal(t, "hk", cfg.App.HashKey)
	assert.Equal(t, 2*time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "postgres://localhost/mmudzi", cfg.Storage.Primary.DSN)
	assert.Equal(t, 4, cfg.Storage.Primary.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Storage.Primary.ConnMaxLifetime)
	assert.Equal(t, "local.db", cfg.Storage.Secondary.DSN)
	assert.Equal(t, time.Minute, cfg.Arbiter.HealthCheckInterval)
	assert.Equal(t, 2*time.Second, cfg.Arbiter.ProbeTimeout)
	assert.Equal(t, []string{"members"}, cfg.Sync.EnrolledTables)
	assert.Equal(t, 20*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Workers.SyncInterval)
	assert.Equal(t, 3*time.Second, cfg.Workers.ShutdownTimeout)
}

func TestParseJSON_BadDuration(t *testing.T) {
	p := writeTempFile(t, "config.json", `{"arbiter": {"probe_timeout": "fast"}}`)

	_, err := parseJSON(p)
	assert.Error(t, err)
}

func TestParseJSON_Malformed(t *testing.T) {
	p := writeTempFile(t, "config.json", `{"app":`)

	_, err := parseJSON(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestParseTOML_Success(t *testing.T) {
	p := writeTempFile(t, "config.toml", `
[storage.primary]
dsn = "postgres://localhost/mmudzi"
retry_attempts = 5

[storage.secondary]
dsn = "local.db"

[sync]
enrolled_tables = ["members", "loans"]

[workers]
sync_interval = "45s"
`)

	cfg, err := parseTOML(p)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/mmudzi", cfg.Storage.Primary.DSN)
	assert.Equal(t, 5, cfg.Storage.Primary.RetryAttempts)
	assert.Equal(t, "local.db", cfg.Storage.Secondary.DSN)
	assert.Equal(t, []string{"members", "loans"}, cfg.Sync.EnrolledTables)
	assert.Equal(t, 45*time.Second, cfg.Workers.SyncInterval)
}

func TestParseTOML_Malformed(t *testing.T) {
	p := writeTempFile(t, "config.toml", "[storage\n")

	_, err := parseTOML(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding toml configs")
}
