package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// EnvMailerHost overrides the SMTP host.
	EnvMailerHost = "MAILER_HOST"

	// EnvMailerPort overrides the SMTP port.
	EnvMailerPort = "MAILER_PORT"

	// EnvMailerUsername overrides the SMTP username.
	EnvMailerUsername = "MAILER_USERNAME"

	// EnvMailerPassword overrides the SMTP password.
	EnvMailerPassword = "MAILER_PASSWORD"

	// EnvMailerFrom overrides the sender address.
	EnvMailerFrom = "MAILER_FROM"
)

// MailerConfig contains outbound SMTP configuration.
// An empty host disables outbound mail; share-by-email then fails
// with a configuration error rather than at dial time.
type MailerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Enabled reports whether outbound mail is configured.
func (c *MailerConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port SMTP address.
func (c *MailerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Finalize applies defaults, loads environment overrides, and validates the mailer configuration.
func (c *MailerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *MailerConfig) Merge(overlay *MailerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
}

func (c *MailerConfig) loadDefaults() {
	if c.Port == 0 {
		c.Port = 587
	}
}

func (c *MailerConfig) loadEnv() {
	if v := os.Getenv(EnvMailerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvMailerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvMailerUsername); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvMailerPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvMailerFrom); v != "" {
		c.From = v
	}
}

func (c *MailerConfig) validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.From == "" {
		return fmt.Errorf("from address required")
	}
	return nil
}
