// Package log provides category-tagged structured logging for gitpane.
//
// The TUI owns stdout, so the default sink is a log file; console output is
// only enabled explicitly (useful when running headless commands).
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Category identifies the subsystem a log line originates from.
type Category string

// Log categories. Every call site passes one so log files can be
// filtered per subsystem.
const (
	CatGit    Category = "git"
	CatSched  Category = "sched"
	CatUI     Category = "ui"
	CatConfig Category = "config"
)

// Config controls logger initialization.
type Config struct {
	Level    string // debug, info, warn, error (default: info)
	FilePath string // log file location; empty disables file output
	Console  bool   // mirror output to stderr
}

var logger = zerolog.New(io.Discard)

// Init configures the package-level logger. Safe to call once at startup;
// before Init all log calls are discarded.
func Init(cfg Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		// #nosec G304 -- path comes from user configuration
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, f)
	}
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if len(writers) == 0 {
		logger = zerolog.New(io.Discard)
		return nil
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

// Debug logs a debug message with key-value pairs.
func Debug(cat Category, msg string, kv ...any) {
	emit(logger.Debug(), cat, msg, kv)
}

// Info logs an informational message with key-value pairs.
func Info(cat Category, msg string, kv ...any) {
	emit(logger.Info(), cat, msg, kv)
}

// Warn logs a warning with key-value pairs.
func Warn(cat Category, msg string, kv ...any) {
	emit(logger.Warn(), cat, msg, kv)
}

// Error logs an error-level message with key-value pairs.
func Error(cat Category, msg string, kv ...any) {
	emit(logger.Error(), cat, msg, kv)
}

// ErrorErr logs an error-level message with an attached error value.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	emit(logger.Error().Err(err), cat, msg, kv)
}

func emit(ev *zerolog.Event, cat Category, msg string, kv []any) {
	ev = ev.Str("cat", string(cat))
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// SafeGo runs fn in a goroutine with panic recovery. Panics are logged with
// the given name instead of crashing the TUI.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatUI, "recovered panic in goroutine", "name", name, "panic", fmt.Sprint(r))
			}
		}()
		fn()
	}()
}
