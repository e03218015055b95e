package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values. Only non-zero/non-empty values
// override the config file; flags always take precedence over it.
type Flags struct {
	ConfigPath string

	Hostname string
	LogLevel string

	Account string
	Token   string

	Address  string
	Pop3Port int
	SMTPPort int
	NoSMTP   bool

	ASCII      bool
	HTML       bool
	Attachment bool
	Inline     bool

	MaxConnections int
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./mop3gw.toml", "path to configuration file")
	flag.StringVar(&f.Hostname, "hostname", "", "server hostname advertised in greetings and Message-IDs")
	flag.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	flag.StringVar(&f.Account, "account", "", "Mastodon-compatible login credential (user@instance or bare instance)")
	flag.StringVar(&f.Token, "token", "", "bearer token (falls back to MOP3GW_TOKEN)")

	flag.StringVar(&f.Address, "address", "", "bind IP for both listeners")
	flag.IntVar(&f.Pop3Port, "pop3port", 0, "POP3 listener port")
	flag.IntVar(&f.SMTPPort, "smtpport", 0, "SMTP listener port")
	flag.BoolVar(&f.NoSMTP, "nosmtp", false, "disable the SMTP listener")

	flag.BoolVar(&f.ASCII, "ascii", false, "deunicode upstream post text before rendering")
	flag.BoolVar(&f.HTML, "html", false, "render bodies as HTML instead of word-wrapped plain text")
	flag.BoolVar(&f.Attachment, "attachment", false, "carry media as MIME attachments instead of links")
	flag.BoolVar(&f.Inline, "inline", false, "carry media as inline MIME parts instead of links")

	flag.IntVar(&f.MaxConnections, "max-connections", 0, "maximum concurrent connections per listener")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config. If the
// file does not exist, returns the default configuration unmodified.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig Config
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return mergeConfig(cfg, fileConfig), nil
}

// ApplyFlags merges command-line flag values into the config. Non-zero/
// non-empty flag values override config file values; MOP3GW_TOKEN fills
// in the token if neither the flag nor the file set one.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.Account != "" {
		cfg.Account = f.Account
	}
	if f.Token != "" {
		cfg.Token = f.Token
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("MOP3GW_TOKEN")
	}
	if f.Address != "" {
		cfg.Address = f.Address
	}
	if f.Pop3Port != 0 {
		cfg.Pop3Port = f.Pop3Port
	}
	if f.SMTPPort != 0 {
		cfg.SMTPPort = f.SMTPPort
	}
	if f.NoSMTP {
		cfg.NoSMTP = true
	}
	if f.ASCII {
		cfg.ASCII = true
	}
	if f.HTML {
		cfg.HTML = true
	}
	if f.Attachment {
		cfg.MediaMode = "attachment"
	}
	if f.Inline {
		cfg.MediaMode = "inline"
	}
	if f.MaxConnections > 0 {
		cfg.Limits.MaxConnections = f.MaxConnections
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeConfig merges non-zero values from src into dst.
func mergeConfig(dst, src Config) Config {
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.Account != "" {
		dst.Account = src.Account
	}
	if src.Token != "" {
		dst.Token = src.Token
	}
	if src.Address != "" {
		dst.Address = src.Address
	}
	if src.Pop3Port != 0 {
		dst.Pop3Port = src.Pop3Port
	}
	if src.SMTPPort != 0 {
		dst.SMTPPort = src.SMTPPort
	}
	if src.NoSMTP {
		dst.NoSMTP = true
	}
	if src.ASCII {
		dst.ASCII = true
	}
	if src.HTML {
		dst.HTML = true
	}
	if src.MediaMode != "" {
		dst.MediaMode = src.MediaMode
	}
	if src.Timeouts.Command != "" {
		dst.Timeouts.Command = src.Timeouts.Command
	}
	if src.Timeouts.Idle != "" {
		dst.Timeouts.Idle = src.Timeouts.Idle
	}
	if src.Limits.MaxConnections > 0 {
		dst.Limits.MaxConnections = src.Limits.MaxConnections
	}
	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}
	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}
	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	return dst
}
