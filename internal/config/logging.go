package config

import (
	"fmt"
	"log/slog"
	"os"
)

const (
	// EnvLogLevel overrides the logging level.
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogFormat overrides the logging output format.
	EnvLogFormat = "LOG_FORMAT"
)

// LogLevel represents a logging severity level.
type LogLevel string

// Log level constants.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ToSlogLevel converts the LogLevel to its slog.Level equivalent.
// Unknown levels default to slog.LevelInfo.
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat represents the log output format.
type LogFormat string

// Log format constants.
const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
}

// Finalize applies defaults, loads environment overrides, and validates the logging configuration.
func (c *LoggingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}

func (c *LoggingConfig) loadDefaults() {
	if c.Level == "" {
		c.Level = LogLevelInfo
	}
	if c.Format == "" {
		c.Format = LogFormatJSON
	}
}

func (c *LoggingConfig) loadEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Format = LogFormat(v)
	}
}

func (c *LoggingConfig) validate() error {
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Level)
	}

	switch c.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid format: %s (must be text or json)", c.Format)
	}

	return nil
}
