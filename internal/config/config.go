// Package config loads server configuration with the precedence
// defaults -> TOML file -> dotenv -> environment -> CLI flags.
package config

import (
	"fmt"
	"time"

	"github.com/notekit/notebook-mcp/internal/errors"
)

// DefaultPort is the fixed well-known port all editor-window processes
// contend for. Exactly one process at a time owns the listener on it.
const DefaultPort = 8765

// Duration wraps time.Duration so TOML values can be written as "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds all runtime configuration for the server.
type Config struct {
	// Port is the shared well-known port the ownership protocol contends for.
	Port int `toml:"port"`

	// BindHost is the interface the listener binds. The server is a local
	// protocol adapter and defaults to loopback only.
	BindHost string `toml:"bind_host"`

	// WorkspaceRoot is the directory scanned for .ipynb documents.
	WorkspaceRoot string `toml:"workspace_root"`

	LogLevel string `toml:"log_level"`

	// PollInterval is the execution-wait poll tick.
	PollInterval Duration `toml:"poll_interval"`

	// ExecutionTimeout bounds how long a tool call waits for a kernel
	// execution to report completion.
	ExecutionTimeout Duration `toml:"execution_timeout"`

	// FocusDebounce delays a takeover attempt after a focus gain so rapid
	// alt-tabbing does not thrash ownership.
	FocusDebounce Duration `toml:"focus_debounce"`

	// TakeoverInterval and TakeoverBudget bound the bind retry loop after a
	// release request has been sent to the current owner.
	TakeoverInterval Duration `toml:"takeover_interval"`
	TakeoverBudget   Duration `toml:"takeover_budget"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		BindHost:         "127.0.0.1",
		WorkspaceRoot:    ".",
		LogLevel:         "info",
		PollInterval:     Duration{100 * time.Millisecond},
		ExecutionTimeout: Duration{60 * time.Second},
		FocusDebounce:    Duration{500 * time.Millisecond},
		TakeoverInterval: Duration{200 * time.Millisecond},
		TakeoverBudget:   Duration{3 * time.Second},
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Validationf("port %d out of range", c.Port)
	}
	if c.BindHost == "" {
		return errors.Validationf("bind_host must not be empty")
	}
	if c.PollInterval.Duration <= 0 {
		return errors.Validationf("poll_interval must be positive")
	}
	if c.ExecutionTimeout.Duration <= 0 {
		return errors.Validationf("execution_timeout must be positive")
	}
	if c.FocusDebounce.Duration < 0 {
		return errors.Validationf("focus_debounce must not be negative")
	}
	if c.TakeoverInterval.Duration <= 0 || c.TakeoverBudget.Duration <= 0 {
		return errors.Validationf("takeover_interval and takeover_budget must be positive")
	}
	return nil
}

// Addr returns the listen address for the shared port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.BindHost, c.Port)
}
