package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calorie-scan.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.History.Capacity != 20 || cfg.History.Key != "calorie-history" {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}
	if cfg.Analysis.MinDelayMs != 2000 || cfg.Analysis.MaxDelayMs != 3000 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `server:
  port: 9090
storage:
  engine: bolt
history:
  capacity: 5
analysis:
  min_delay_ms: 0
  max_delay_ms: 10
  seed: 42
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.Engine != "bolt" || filepath.Base(cfg.Storage.Path) != "calorie-scan.bolt" {
		t.Errorf("expected bolt engine with default bolt path, got %+v", cfg.Storage)
	}
	if cfg.History.Capacity != 5 {
		t.Errorf("History.Capacity: got %d, want 5", cfg.History.Capacity)
	}
	if cfg.Analysis.Seed != 42 || cfg.Analysis.MaxDelay().Milliseconds() != 10 {
		t.Errorf("unexpected analysis config: %+v", cfg.Analysis)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("CALORIE_SCAN_PORT", "7070")
	t.Setenv("CALORIE_SCAN_STORE", "memory")
	t.Setenv("CALORIE_SCAN_HISTORY_KEY", "scans")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Engine != "memory" || cfg.Storage.Path != "" {
		t.Errorf("expected memory engine without path, got %+v", cfg.Storage)
	}
	if cfg.History.Key != "scans" {
		t.Errorf("History.Key: got %q, want %q", cfg.History.Key, "scans")
	}
	if cfg.Addr() != "0.0.0.0:7070" {
		t.Errorf("Addr(): got %q", cfg.Addr())
	}
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("CALORIE_SCAN_PORT", "eighty")

	_, err := Load("")
	var invalid *InvalidConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
	if invalid.Field != "CALORIE_SCAN_PORT" {
		t.Errorf("Field: got %q", invalid.Field)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"port":     func(c *Config) { c.Server.Port = 0 },
		"engine":   func(c *Config) { c.Storage.Engine = "redis" },
		"path":     func(c *Config) { c.Storage.Path = "" },
		"capacity": func(c *Config) { c.History.Capacity = 0 },
		"negative": func(c *Config) { c.Analysis.MinDelayMs = -1 },
		"order":    func(c *Config) { c.Analysis.MinDelayMs = 5000 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		var invalid *InvalidConfigError
		if err := cfg.Validate(); !errors.As(err, &invalid) {
			t.Errorf("%s: expected InvalidConfigError, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
