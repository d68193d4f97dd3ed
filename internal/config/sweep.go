package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

const (
	// EnvSweepEnabled overrides whether the expiry sweep runs.
	EnvSweepEnabled = "SWEEP_ENABLED"

	// EnvSweepSchedule overrides the sweep cron schedule.
	EnvSweepSchedule = "SWEEP_SCHEDULE"
)

// SweepConfig controls the background purge of self-destructing documents
// whose expires_at has passed. Share-link expiry is deliberately not swept;
// it is checked lazily at access time.
type SweepConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
}

// Finalize applies defaults, loads environment overrides, and validates the sweep configuration.
func (c *SweepConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration.
func (c *SweepConfig) Merge(overlay *SweepConfig) {
	c.Enabled = overlay.Enabled
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
}

func (c *SweepConfig) loadDefaults() {
	if c.Schedule == "" {
		c.Schedule = "@every 1h"
	}
}

func (c *SweepConfig) loadEnv() {
	if v := os.Getenv(EnvSweepEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvSweepSchedule); v != "" {
		c.Schedule = v
	}
}

func (c *SweepConfig) validate() error {
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}
