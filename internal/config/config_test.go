package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
line:
  channel_secret: secret
  channel_token: token
gemini:
  api_key: test-key
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.0-flash-lite"}, cfg.Gemini.Models)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Gemini.BackoffMin)
	assert.Equal(t, 5*time.Second, cfg.Gemini.BackoffMax)
	assert.Equal(t, 10*time.Minute, cfg.Dedup.TTL)

	require.Contains(t, cfg.Scheduler.Tasks, "sql_maintenance")
	assert.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
	require.Contains(t, cfg.Scheduler.Tasks, "dedup_sweep")

	assert.NotEmpty(t, cfg.Messages.ErrorGeneral)
	assert.NotEmpty(t, cfg.Messages.ErrorRateLimited)
	assert.Contains(t, cfg.Messages.NameUpdated, "%s")
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
line:
  channel_secret: secret
  channel_token: token
logger:
  level: debug
gemini:
  api_key: test-key
  models:
    - gemini-experimental
  max_attempts: 5
dedup:
  ttl: 30m
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, []string{"gemini-experimental"}, cfg.Gemini.Models)
	assert.Equal(t, 5, cfg.Gemini.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Dedup.TTL)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BOT_LINE_CHANNEL_SECRET", "secret")
	t.Setenv("BOT_LINE_CHANNEL_TOKEN", "token")
	t.Setenv("BOT_GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "missing line credentials",
			config: `
gemini:
  api_key: test-key
`,
		},
		{
			name: "missing gemini key",
			config: `
line:
  channel_secret: secret
  channel_token: token
`,
		},
		{
			name: "bad log level",
			config: `
line:
  channel_secret: secret
  channel_token: token
gemini:
  api_key: test-key
logger:
  level: loud
`,
		},
		{
			name: "empty model list",
			config: `
line:
  channel_secret: secret
  channel_token: token
gemini:
  api_key: test-key
  models: []
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.config))
			assert.Error(t, err)
		})
	}
}
