package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/notekit/notebook-mcp/internal/errors"
)

// Overrides holds CLI flag values that take precedence over env/file/defaults.
// Only non-nil fields are applied.
type Overrides struct {
	Port          *int
	WorkspaceRoot *string
	LogLevel      *string
}

// Load builds the configuration. ConfigPath may be empty, in which case
// "notebook-mcp.toml" in the current directory is tried and silently skipped
// when absent; an explicitly named file must exist.
func Load(configPath string, overrides *Overrides) (*Config, error) {
	cfg := Default()

	// Local dotenv files for developer ergonomics. Explicit env wins.
	_ = godotenv.Load(".env.local", ".env")

	explicit := configPath != ""
	if configPath == "" {
		configPath = "notebook-mcp.toml"
	}
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "reading config file %s", configPath)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if overrides != nil {
		if overrides.Port != nil {
			cfg.Port = *overrides.Port
		}
		if overrides.WorkspaceRoot != nil {
			cfg.WorkspaceRoot = *overrides.WorkspaceRoot
		}
		if overrides.LogLevel != nil {
			cfg.LogLevel = *overrides.LogLevel
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("NOTEBOOK_MCP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Validationf("NOTEBOOK_MCP_PORT=%q is not a number", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("NOTEBOOK_MCP_BIND_HOST"); v != "" {
		cfg.BindHost = v
	}
	if v := os.Getenv("NOTEBOOK_MCP_WORKSPACE"); v != "" {
		cfg.WorkspaceRoot = v
	}
	if v := os.Getenv("NOTEBOOK_MCP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NOTEBOOK_MCP_EXECUTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Validationf("NOTEBOOK_MCP_EXECUTION_TIMEOUT=%q is not a duration", v)
		}
		cfg.ExecutionTimeout = Duration{d}
	}
	return nil
}
