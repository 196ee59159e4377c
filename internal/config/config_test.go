package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekit/notebook-mcp/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.BindHost)
	assert.Equal(t, 60*time.Second, cfg.ExecutionTimeout.Duration)
}

func TestLoadWithoutAnySource(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	content := `
port = 9100
bind_host = "127.0.0.1"
log_level = "debug"
execution_timeout = "90s"
focus_debounce = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.ExecutionTimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.FocusDebounce.Duration)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9100\n"), 0o644))
	t.Setenv("NOTEBOOK_MCP_PORT", "9200")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Port)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("NOTEBOOK_MCP_PORT", "9200")
	t.Setenv("NOTEBOOK_MCP_LOG_LEVEL", "warn")

	port := 9300
	cfg, err := Load("", &Overrides{Port: &port})
	require.NoError(t, err)
	assert.Equal(t, 9300, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel, "env values without a flag still apply")
}

func TestBadEnvValues(t *testing.T) {
	t.Setenv("NOTEBOOK_MCP_PORT", "not-a-number")
	_, err := Load("", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too small", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"empty bind host", func(c *Config) { c.BindHost = "" }},
		{"zero poll interval", func(c *Config) { c.PollInterval = Duration{} }},
		{"zero execution timeout", func(c *Config) { c.ExecutionTimeout = Duration{} }},
		{"negative focus debounce", func(c *Config) { c.FocusDebounce = Duration{-time.Second} }},
		{"zero takeover budget", func(c *Config) { c.TakeoverBudget = Duration{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrValidation))
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.BindHost = "127.0.0.1"
	cfg.Port = 8765
	assert.Equal(t, "127.0.0.1:8765", cfg.Addr())
}
