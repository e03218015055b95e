// Package config provides configuration management for the gateway: a
// TOML file loaded at startup, overridden by CLI flags (flags always win).
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the gateway's full runtime configuration.
type Config struct {
	Hostname string `toml:"hostname"`
	LogLevel string `toml:"log_level"`

	Account string `toml:"account"` // Mastodon-compatible login credential (user@instance or bare instance)
	Token   string `toml:"token"`   // bearer token; also settable via MOP3GW_TOKEN

	Address  string `toml:"address"`   // bind IP for both listeners, default 127.0.0.1
	Pop3Port int    `toml:"pop3_port"` // default 110
	SMTPPort int    `toml:"smtp_port"` // default 25
	NoSMTP   bool   `toml:"no_smtp"`   // disable the SMTP listener entirely

	ASCII     bool   `toml:"ascii"`      // deunicode upstream post text before rendering
	HTML      bool   `toml:"html"`       // render bodies as HTML instead of word-wrapped plain text
	MediaMode string `toml:"media_mode"` // "link" (default), "attachment", "inline"

	Timeouts TimeoutsConfig `toml:"timeouts"`
	Limits   LimitsConfig   `toml:"limits"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// TimeoutsConfig defines timeout durations, parsed as Go duration strings.
type TimeoutsConfig struct {
	Command string `toml:"command"`
	Idle    string `toml:"idle"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxConnections int `toml:"max_connections"`
}

// MetricsConfig holds configuration for the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Hostname:  "localhost",
		LogLevel:  "info",
		Address:   "127.0.0.1",
		Pop3Port:  110,
		SMTPPort:  25,
		MediaMode: "link",
		Timeouts: TimeoutsConfig{
			Command: "1m",
			Idle:    "10m",
		},
		Limits: LimitsConfig{
			MaxConnections: 1,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9101",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	// SMTP has no per-session USER/PASS dance, so its account and token
	// must come from CLI/config. POP3 can always fall back to the USER/PASS
	// the client sends on the wire.
	if !c.NoSMTP {
		if c.Account == "" {
			return errors.New("account is required for the SMTP listener (--account or config account, or pass --nosmtp)")
		}
		if c.Token == "" {
			return errors.New("token is required for the SMTP listener (--token, MOP3GW_TOKEN, or config token, or pass --nosmtp)")
		}
	}

	if c.Pop3Port <= 0 || c.Pop3Port > 65535 {
		return fmt.Errorf("invalid pop3 port %d", c.Pop3Port)
	}

	if !c.NoSMTP && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		return fmt.Errorf("invalid smtp port %d", c.SMTPPort)
	}

	if !isValidMediaMode(c.MediaMode) {
		return fmt.Errorf("invalid media_mode %q (valid: link, attachment, inline)", c.MediaMode)
	}

	if c.Timeouts.Command != "" {
		if _, err := time.ParseDuration(c.Timeouts.Command); err != nil {
			return fmt.Errorf("invalid command timeout: %w", err)
		}
	}

	if c.Timeouts.Idle != "" {
		if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
			return fmt.Errorf("invalid idle timeout: %w", err)
		}
	}

	if c.Limits.MaxConnections <= 0 {
		return errors.New("max_connections must be positive")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}

// CommandTimeout returns the command timeout as a time.Duration.
// Returns 1 minute if not configured or invalid.
func (c *TimeoutsConfig) CommandTimeout() time.Duration {
	if c.Command == "" {
		return 1 * time.Minute
	}
	d, err := time.ParseDuration(c.Command)
	if err != nil {
		return 1 * time.Minute
	}
	return d
}

// IdleTimeout returns the idle timeout as a time.Duration.
// Returns 10 minutes if not configured or invalid.
func (c *TimeoutsConfig) IdleTimeout() time.Duration {
	if c.Idle == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(c.Idle)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

func isValidMediaMode(m string) bool {
	switch m {
	case "link", "attachment", "inline":
		return true
	default:
		return false
	}
}
