// Package config provides configuration types and defaults for gitpane.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for gitpane.
type Config struct {
	// RepoPath is the working copy the panel is attached to.
	// Defaults to the current directory.
	RepoPath string `mapstructure:"repo_path"`

	// AutoRefresh enables the periodic snapshot refresh loop.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// RefreshInterval is the period between automatic snapshot fetches.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	// WatchDebounce coalesces bursts of .git file events into one refresh.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`

	// CommitLogLimit caps how many commits one snapshot carries.
	CommitLogLimit int `mapstructure:"commit_log_limit"`

	// ErrorTTL is how long transient operation errors stay visible.
	ErrorTTL time.Duration `mapstructure:"error_ttl"`

	// ProtectedBranches may not be deleted without an explicit force flag.
	ProtectedBranches []string `mapstructure:"protected_branches"`

	Git       GitConfig       `mapstructure:"git"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GitConfig holds settings for the git CLI gateway.
type GitConfig struct {
	// Binary is the git executable to invoke. Defaults to "git" (PATH lookup).
	Binary string `mapstructure:"binary"`

	// CommandTimeout bounds a single git invocation.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	FilePath string `mapstructure:"file_path"`
	Console  bool   `mapstructure:"console"`
}

// TelemetryConfig holds trace export settings.
type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // "stdout" or "otlp"
	Endpoint string `mapstructure:"endpoint"` // OTLP gRPC endpoint
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		RepoPath:          ".",
		AutoRefresh:       true,
		RefreshInterval:   3 * time.Second,
		WatchDebounce:     250 * time.Millisecond,
		CommitLogLimit:    50,
		ErrorTTL:          5 * time.Second,
		ProtectedBranches: []string{"main", "master"},
		Git: GitConfig{
			Binary:         "git",
			CommandTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			FilePath: defaultLogPath(),
		},
		Telemetry: TelemetryConfig{
			Exporter: "stdout",
		},
	}
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gitpane", "gitpane.log")
}

// Validate checks the configuration for values the runtime cannot work with.
func (c Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh_interval must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.CommitLogLimit <= 0 {
		return fmt.Errorf("commit_log_limit must be positive, got %d", c.CommitLogLimit)
	}
	if c.ErrorTTL <= 0 {
		return fmt.Errorf("error_ttl must be positive, got %s", c.ErrorTTL)
	}
	switch c.Telemetry.Exporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter must be stdout or otlp, got %q", c.Telemetry.Exporter)
	}
	return nil
}
