package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.False(t, cfg.Development)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
rate_limit:
  limit: 3
  window: 10s
auth:
  tokens:
    tok-1: alice
generate:
  api_key: test-key
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "memory", cfg.RateLimit.Backend, "unset keys keep defaults")
	assert.Equal(t, "alice", cfg.Auth.Tokens["tok-1"])
	assert.Equal(t, "test-key", cfg.Generate.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("COMMITCAST_API_TOKEN", "env-token")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GITHUB_TOKEN", "env-gh")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Auth.Tokens["env-token"])
	assert.Equal(t, "env-key", cfg.Generate.APIKey)
	assert.Equal(t, "env-gh", cfg.GitHost.Token)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no auth tokens", func(c *Config) { c.Auth.Tokens = nil }},
		{"zero limit", func(c *Config) { c.RateLimit.Limit = 0 }},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "dynamo" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Auth.Tokens = map[string]string{"tok": "alice"}
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateDoesNotRequireProviderKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.Tokens = map[string]string{"tok": "alice"}
	cfg.Generate.APIKey = ""
	assert.NoError(t, cfg.Validate(), "a missing provider key is a request-time error, not a startup failure")
}
