package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
generation:
  difficulty: hard
  num_events: 500
  max_days: 14
output:
  format: json
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Generation.Difficulty != "hard" {
		t.Errorf("difficulty = %q, want hard", cfg.Generation.Difficulty)
	}
	if cfg.Generation.NumEvents != 500 {
		t.Errorf("num_events = %d, want 500", cfg.Generation.NumEvents)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Output.Format)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config invalid: %v", err)
	}
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("generation:\n  difficulty: easy\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Generation.Difficulty != "easy" {
		t.Errorf("difficulty = %q, want easy", cfg.Generation.Difficulty)
	}
	if cfg.Generation.NumEvents != 1000 {
		t.Errorf("num_events = %d, want default 1000", cfg.Generation.NumEvents)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("format = %q, want default text", cfg.Output.Format)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIMSIM_DIFFICULTY", "adversarial")
	t.Setenv("DIMSIM_NUM_EVENTS", "250")
	t.Setenv("DIMSIM_OUTPUT_FORMAT", "json")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.Generation.Difficulty != "adversarial" {
		t.Errorf("difficulty = %q, want adversarial", cfg.Generation.Difficulty)
	}
	if cfg.Generation.NumEvents != 250 {
		t.Errorf("num_events = %d, want 250", cfg.Generation.NumEvents)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Output.Format)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad difficulty", func(c *Config) { c.Generation.Difficulty = "impossible" }},
		{"zero events", func(c *Config) { c.Generation.NumEvents = 0 }},
		{"negative days", func(c *Config) { c.Generation.MaxDays = -1 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}

func TestProgressPathOverride(t *testing.T) {
	cfg := Default()
	cfg.Progress.Path = "/tmp/custom.db"
	path, err := cfg.ProgressPath()
	if err != nil {
		t.Fatalf("ProgressPath: %v", err)
	}
	if path != "/tmp/custom.db" {
		t.Errorf("path = %q, want /tmp/custom.db", path)
	}
}
