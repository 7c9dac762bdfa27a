package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given file, or from the default search
// path (~/.gitpane/config.yaml, then ./.gitpane.yaml) when file is empty.
// A missing config file is not an error; defaults apply.
func Load(file string) (Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("GITPANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gitpane"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" {
			// An explicitly named file must exist and parse.
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("repo_path", def.RepoPath)
	v.SetDefault("auto_refresh", def.AutoRefresh)
	v.SetDefault("refresh_interval", def.RefreshInterval)
	v.SetDefault("watch_debounce", def.WatchDebounce)
	v.SetDefault("commit_log_limit", def.CommitLogLimit)
	v.SetDefault("error_ttl", def.ErrorTTL)
	v.SetDefault("protected_branches", def.ProtectedBranches)
	v.SetDefault("git.binary", def.Git.Binary)
	v.SetDefault("git.command_timeout", def.Git.CommandTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file_path", def.Logging.FilePath)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("telemetry.enabled", def.Telemetry.Enabled)
	v.SetDefault("telemetry.exporter", def.Telemetry.Exporter)
	v.SetDefault("telemetry.endpoint", def.Telemetry.Endpoint)
}
