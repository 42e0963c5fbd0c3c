// Package config loads the CLI harness's process-level configuration,
// adapted from the teacher's pkg/config.Config/Load() (env-var driven,
// typed, zero-value defaults). This is distinct from the runtime's own
// Configuration record (spec.md §4.6), which is a value passed
// explicitly through Engine.Run rather than read from the environment.
package config

import (
	"log/slog"
	"os"
)

// Config holds the CLI's ambient settings.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error" (default "info").
	LogLevel string

	// OutputDir is read from PEL_OUTPUT_DIR. `pel compile`/`pel run` do
	// not consult it: without an explicit -o they write to standard
	// output.
	OutputDir string
}

// Load reads configuration from environment variables, falling back to
// zero-value defaults.
func Load() *Config {
	logLevel := os.Getenv("PEL_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	return &Config{
		LogLevel:  logLevel,
		OutputDir: os.Getenv("PEL_OUTPUT_DIR"),
	}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info for an
// unrecognized value rather than erroring — a misconfigured log level
// should never stop the CLI from running.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
