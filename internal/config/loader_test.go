package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ROSTER_HTTP_PORT", "ROSTER_SQLITE_DSN", "ROSTER_COMMAND_NET_NAME", "ROSTER_BASE_FREQUENCY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "" {
		t.Errorf("SQLiteDSN = %q, want empty (memory store)", cfg.SQLiteDSN)
	}
	if cfg.CommandNetName != "COMANDO CENTRAL" {
		t.Errorf("CommandNetName = %q", cfg.CommandNetName)
	}
	if cfg.BaseFrequency != 41 {
		t.Errorf("BaseFrequency = %d, want 41", cfg.BaseFrequency)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROSTER_HTTP_PORT", "9090")
	t.Setenv("ROSTER_SQLITE_DSN", "file:roster.db")
	t.Setenv("ROSTER_COMMAND_NET_NAME", "HQ NET")
	t.Setenv("ROSTER_BASE_FREQUENCY", "55")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:roster.db" || cfg.CommandNetName != "HQ NET" || cfg.BaseFrequency != 55 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadInvalidValuesAccumulate(t *testing.T) {
	t.Setenv("ROSTER_HTTP_PORT", "not-a-port")
	t.Setenv("ROSTER_BASE_FREQUENCY", "-3")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid values")
	}
	if !strings.Contains(err.Error(), "ROSTER_HTTP_PORT") || !strings.Contains(err.Error(), "ROSTER_BASE_FREQUENCY") {
		t.Fatalf("error should name every invalid variable: %v", err)
	}
}
