package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, databaseDSNEnv, databaseDriverEnv, httpAddrEnv, logLevelEnv,
		chatGPTAPIKeyEnv, chatGPTModelEnv, telegramTokenEnv, telegramChatIDEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "auto", cfg.Search.Capability)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "telegram", cfg.Sources[0].Scanner)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: /var/lib/archive.db
  disableFullText: true
search:
  capability: substring
  maxLimit: 40
scheduler:
  enabled: true
  interval: 5m
  timezone: Europe/Berlin
review:
  requireApproval: true
sources:
  - name: funding
    scanner: telegram
    channels:
      - name: grants
        url: https://t.me/s/grants
    options:
      maxPages: "2"
`)

	cfg := LoadFile(path)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/archive.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.DisableFullText)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns, "unset fields keep defaults")
	assert.Equal(t, "substring", cfg.Search.Capability)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 40, cfg.Search.MaxLimit)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Lookback)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.True(t, cfg.Review.RequireApproval)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "https://t.me/s/grants", cfg.Sources[0].Channels[0].URL)
	assert.Equal(t, "2", cfg.Sources[0].Options["maxPages"])
}

func TestLoadUsesPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(configPathEnv, writeConfig(t, "server:\n  addr: \":9090\"\n"))

	assert.Equal(t, ":9090", Load().Server.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  dsn: from-file\nlogging:\n  level: warn\n")
	t.Setenv(databaseDSNEnv, "postgres://archive@db/archive")
	t.Setenv(logLevelEnv, "debug")
	t.Setenv(chatGPTAPIKeyEnv, "sk-test")
	t.Setenv(telegramChatIDEnv, "-100200")

	cfg := LoadFile(path)
	assert.Equal(t, "postgres://archive@db/archive", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sk-test", cfg.ChatGPT.APIKey)
	assert.Equal(t, "-100200", cfg.Notifications.Telegram.ChatID)
}

func TestBrokenFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile(writeConfig(t, "database: [unterminated"))
	assert.Equal(t, "postgres", cfg.Database.Driver)

	cfg = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestUnknownTimezoneRevertsToUTC(t *testing.T) {
	clearEnv(t)

	cfg := LoadFile(writeConfig(t, "scheduler:\n  timezone: Mars/Olympus\n"))
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
