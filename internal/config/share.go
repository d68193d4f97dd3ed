package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvShareBaseURL overrides the public base URL for share links.
	EnvShareBaseURL = "SHARE_BASE_URL"

	// EnvShareMaxTTL overrides the maximum share link lifetime.
	EnvShareMaxTTL = "SHARE_MAX_TTL"
)

// ShareConfig contains share link configuration.
type ShareConfig struct {
	// BaseURL is the externally reachable prefix share URLs are built from.
	// Empty means the server public URL is used.
	BaseURL string `toml:"base_url"`

	// MaxTTL bounds caller-requested link lifetimes. Zero means unbounded,
	// matching the "no expiry" share semantics.
	MaxTTL string `toml:"max_ttl"`

	maxTTLVal time.Duration
}

// MaxTTLDuration returns the parsed maximum link lifetime.
func (c *ShareConfig) MaxTTLDuration() time.Duration {
	return c.maxTTLVal
}

// Finalize applies defaults, loads environment overrides, and validates the share configuration.
func (c *ShareConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ShareConfig) Merge(overlay *ShareConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.MaxTTL != "" {
		c.MaxTTL = overlay.MaxTTL
	}
}

func (c *ShareConfig) loadEnv() {
	if v := os.Getenv(EnvShareBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvShareMaxTTL); v != "" {
		c.MaxTTL = v
	}
}

func (c *ShareConfig) validate() error {
	if c.MaxTTL == "" {
		return nil
	}

	d, err := time.ParseDuration(c.MaxTTL)
	if err != nil {
		return fmt.Errorf("invalid max_ttl: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("max_ttl cannot be negative")
	}
	c.maxTTLVal = d

	return nil
}
