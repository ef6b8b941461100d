package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AgentURL != "http://localhost:7080" {
		t.Errorf("agent_url default = %s", cfg.AgentURL)
	}
	if cfg.CallerID != "orb-collector" {
		t.Errorf("caller_id default = %s", cfg.CallerID)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout default = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries default = %d", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Errorf("retry base delay default = %v", cfg.RetryBaseDelay)
	}
	if cfg.PollInterval != 60*time.Second {
		t.Errorf("poll interval default = %v", cfg.PollInterval)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AGENT_URL", "http://192.168.1.10:7080")
	t.Setenv("RETRY_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AgentURL != "http://192.168.1.10:7080" {
		t.Errorf("agent_url override = %s", cfg.AgentURL)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Errorf("retry base delay override = %v", cfg.RetryBaseDelay)
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-positive poll_interval")
	}
}
