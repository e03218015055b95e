package config

import "testing"

func TestDefaultIsValidOnceAccountAndTokenSet(t *testing.T) {
	cfg := Default()
	cfg.Account = "alice@example.social"
	cfg.Token = "tok"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() + account/token should validate, got %v", err)
	}
}

func TestValidateRequiresHostname(t *testing.T) {
	cfg := Default()
	cfg.Hostname = ""
	cfg.NoSMTP = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty hostname")
	}
}

func TestValidateRequiresAccountAndTokenUnlessNoSMTP(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error: account/token required when SMTP listener is enabled")
	}

	cfg.NoSMTP = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("NoSMTP should relax account/token requirement, got %v", err)
	}
}

func TestValidateRejectsBadPorts(t *testing.T) {
	cfg := Default()
	cfg.Account, cfg.Token = "a", "t"
	cfg.Pop3Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pop3 port 0")
	}

	cfg = Default()
	cfg.Account, cfg.Token = "a", "t"
	cfg.SMTPPort = 99999
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for smtp port out of range")
	}
}

func TestValidateRejectsBadMediaMode(t *testing.T) {
	cfg := Default()
	cfg.Account, cfg.Token = "a", "t"
	cfg.MediaMode = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid media_mode")
	}
}

func TestValidateRejectsBadTimeouts(t *testing.T) {
	cfg := Default()
	cfg.Account, cfg.Token = "a", "t"
	cfg.Timeouts.Command = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid command timeout")
	}
}

func TestValidateRequiresMetricsAddressWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Account, cfg.Token = "a", "t"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty metrics address when enabled")
	}
}

func TestCommandTimeoutDefaultsWhenUnset(t *testing.T) {
	var tc TimeoutsConfig
	if got := tc.CommandTimeout(); got.String() != "1m0s" {
		t.Errorf("CommandTimeout() = %v, want 1m0s", got)
	}
}

func TestIdleTimeoutDefaultsWhenInvalid(t *testing.T) {
	tc := TimeoutsConfig{Idle: "garbage"}
	if got := tc.IdleTimeout(); got.String() != "10m0s" {
		t.Errorf("IdleTimeout() = %v, want 10m0s", got)
	}
}
