// Package config provides application configuration management with support for
// TOML files, environment variable overrides, and configuration overlays.
package config

import (
	"fmt"
	"os"

	"github.com/docvault/docvault/pkg/pagination"
	"github.com/pelletier/go-toml/v2"
)

const (
	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv specifies the environment name for configuration overlays.
	EnvServiceEnv = "SERVICE_ENV"
)

// Config represents the root service configuration.
type Config struct {
	Server     ServerConfig      `toml:"server"`
	Database   DatabaseConfig    `toml:"database"`
	Logging    LoggingConfig     `toml:"logging"`
	CORS       CORSConfig        `toml:"cors"`
	Pagination pagination.Config `toml:"pagination"`
	Storage    StorageConfig     `toml:"storage"`
	Share      ShareConfig       `toml:"share"`
	Transform  TransformConfig   `toml:"transform"`
	Mailer     MailerConfig      `toml:"mailer"`
	Sweep      SweepConfig       `toml:"sweep"`
}

// Load reads and parses the base configuration file, applies any
// environment-specific overlay, and finalizes every section.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.CORS.Finalize(); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Share.Finalize(); err != nil {
		return fmt.Errorf("share: %w", err)
	}
	if err := c.Transform.Finalize(); err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	if err := c.Mailer.Finalize(); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	if err := c.Sweep.Finalize(); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Logging.Merge(&overlay.Logging)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Storage.Merge(&overlay.Storage)
	c.Share.Merge(&overlay.Share)
	c.Transform.Merge(&overlay.Transform)
	c.Mailer.Merge(&overlay.Mailer)
	c.Sweep.Merge(&overlay.Sweep)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
