package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MOODCHAT_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ResponderRules, cfg.BasicConfig.Responder)
	assert.Equal(t, MemoryInMemory, cfg.BasicConfig.MemoryBackend)
	assert.Equal(t, ":5000", cfg.BasicConfig.ServerAddress)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadJSONResolvesSQLitePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"basic_config": {"server_address": ":9000", "memory_backend": "sqlite3"},
		"databases": {"sqlite3": {"dsn": "data/memory.db"}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, filepath.Join(dir, "data/memory.db"), cfg.Databases["sqlite3"].DSN)
	// untouched fields keep their defaults
	assert.Equal(t, 8, cfg.BasicConfig.MaxWorkers)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
basic_config:
  responder: llm
  provider: openai
  log_format: json
providers:
  openai:
    model: gpt-4o-mini
    api_key: sk-test
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ResponderLLM, cfg.BasicConfig.Responder)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers["openai"].Model)
	assert.Equal(t, "json", cfg.BasicConfig.LogFormat)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MOODCHAT_CONFIG", "")
	t.Setenv("MOODCHAT_ADDR", ":7777")
	t.Setenv("MOODCHAT_BACKEND_URL", "http://chat.local")
	t.Setenv("MOODCHAT_MAX_WORKERS", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.BasicConfig.ServerAddress)
	assert.Equal(t, "http://chat.local", cfg.BasicConfig.BackendURL)
	assert.Equal(t, 3, cfg.BasicConfig.MaxWorkers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown responder", func(c *Config) { c.BasicConfig.Responder = "oracle" }, false},
		{"llm without provider", func(c *Config) { c.BasicConfig.Responder = ResponderLLM }, false},
		{"llm with unconfigured provider", func(c *Config) {
			c.BasicConfig.Responder = ResponderLLM
			c.BasicConfig.Provider = "claude"
		}, false},
		{"sqlite without database", func(c *Config) { c.BasicConfig.MemoryBackend = "sqlite3" }, false},
		{"redis memory", func(c *Config) { c.BasicConfig.MemoryBackend = MemoryRedis }, true},
		{"zero workers", func(c *Config) { c.BasicConfig.MaxWorkers = 0 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
