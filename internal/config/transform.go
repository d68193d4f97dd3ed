package config

import (
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
)

const (
	// EnvTransformTimeout overrides the per-operation processing bound.
	EnvTransformTimeout = "TRANSFORM_TIMEOUT"

	// EnvTransformMaxInputSize overrides the maximum transformation input size.
	EnvTransformMaxInputSize = "TRANSFORM_MAX_INPUT_SIZE"
)

// TransformConfig bounds transformation processing time and input size.
type TransformConfig struct {
	// Timeout is the upper bound on a single transformation, including the
	// source fetch from storage.
	Timeout string `toml:"timeout"`

	// MaxInputSize is a human-readable limit on source content size.
	MaxInputSize string `toml:"max_input_size"`

	timeoutVal      time.Duration
	maxInputSizeVal int64
}

// TimeoutDuration returns the parsed processing bound.
func (c *TransformConfig) TimeoutDuration() time.Duration {
	return c.timeoutVal
}

// MaxInputSizeBytes returns the parsed input size limit in bytes.
func (c *TransformConfig) MaxInputSizeBytes() int64 {
	return c.maxInputSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the transform configuration.
func (c *TransformConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *TransformConfig) Merge(overlay *TransformConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxInputSize != "" {
		c.MaxInputSize = overlay.MaxInputSize
	}
}

func (c *TransformConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxInputSize == "" {
		c.MaxInputSize = "200MB"
	}
}

func (c *TransformConfig) loadEnv() {
	if v := os.Getenv(EnvTransformTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvTransformMaxInputSize); v != "" {
		c.MaxInputSize = v
	}
}

func (c *TransformConfig) validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	c.timeoutVal = d

	size, err := units.FromHumanSize(c.MaxInputSize)
	if err != nil {
		return fmt.Errorf("invalid max_input_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_input_size must be positive")
	}
	c.maxInputSizeVal = size

	return nil
}
