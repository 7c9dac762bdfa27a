package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 3*time.Second, cfg.RefreshInterval)
	require.Equal(t, 50, cfg.CommitLogLimit)
	require.Equal(t, []string{"main", "master"}, cfg.ProtectedBranches)
	require.Equal(t, "git", cfg.Git.Binary)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "empty repo path",
			mutate:  func(c *config.Config) { c.RepoPath = "" },
			wantErr: "repo_path",
		},
		{
			name:    "refresh interval too small",
			mutate:  func(c *config.Config) { c.RefreshInterval = 100 * time.Millisecond },
			wantErr: "refresh_interval",
		},
		{
			name:    "zero commit log limit",
			mutate:  func(c *config.Config) { c.CommitLogLimit = 0 },
			wantErr: "commit_log_limit",
		},
		{
			name:    "negative error ttl",
			mutate:  func(c *config.Config) { c.ErrorTTL = -time.Second },
			wantErr: "error_ttl",
		},
		{
			name:    "unknown telemetry exporter",
			mutate:  func(c *config.Config) { c.Telemetry.Exporter = "jaeger" },
			wantErr: "telemetry.exporter",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
repo_path: /work/project
auto_refresh: false
refresh_interval: 10s
commit_log_limit: 25
protected_branches:
  - main
  - release
git:
  binary: /usr/local/bin/git
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/work/project", cfg.RepoPath)
	require.False(t, cfg.AutoRefresh)
	require.Equal(t, 10*time.Second, cfg.RefreshInterval)
	require.Equal(t, 25, cfg.CommitLogLimit)
	require.Equal(t, []string{"main", "release"}, cfg.ProtectedBranches)
	require.Equal(t, "/usr/local/bin/git", cfg.Git.Binary)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Unset keys keep their defaults.
	require.Equal(t, 5*time.Second, cfg.ErrorTTL)
	require.Equal(t, 30*time.Second, cfg.Git.CommandTimeout)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh_interval: 10ms\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "refresh_interval")
}
