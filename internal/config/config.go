// Package config provides unified configuration loading for dimsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jfarrand/dimsim/internal/shop"
)

// Config contains all dimsim configuration settings.
type Config struct {
	// Generation holds defaults for scenario generation.
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	// Output holds report rendering settings.
	Output OutputConfig `json:"output" yaml:"output"`

	// Progress holds local progress tracking settings.
	Progress ProgressConfig `json:"progress" yaml:"progress"`

	// Logging configures operational and audit logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GenerationConfig holds the default knobs for new scenarios.
type GenerationConfig struct {
	// Difficulty is the default tier: easy, medium, hard, or adversarial.
	Difficulty string `json:"difficulty" yaml:"difficulty"`

	// NumEvents is the default event budget per simulation.
	NumEvents int `json:"num_events" yaml:"num_events"`

	// MaxDays is the default day budget per simulation.
	MaxDays int `json:"max_days" yaml:"max_days"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	// Format selects the default report format: "text" or "json".
	Format string `json:"format" yaml:"format"`
}

// ProgressConfig configures the local attempt history.
type ProgressConfig struct {
	// Path is the SQLite database location. Empty means
	// ~/.dimsim/progress.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures dimsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables attempt auditing to .dimsim/audit.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Difficulty: string(shop.DifficultyMedium),
			NumEvents:  1000,
			MaxDays:    30,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the dimsim state directory, ~/.dimsim.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".dimsim"), nil
}

// ProgressPath resolves the progress database location.
func (c *Config) ProgressPath() (string, error) {
	if c.Progress.Path != "" {
		return c.Progress.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "progress.db"), nil
}

// Load loads configuration from the default locations and environment
// variables. Order: defaults -> ~/.dimsim/config.yaml -> environment.
func Load() (*Config, error) {
	config := Default()

	if dir, err := Dir(); err == nil {
		configPath := filepath.Join(dir, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := shop.ParseDifficulty(c.Generation.Difficulty); err != nil {
		return err
	}
	if c.Generation.NumEvents <= 0 {
		return fmt.Errorf("num_events must be positive, got %d", c.Generation.NumEvents)
	}
	if c.Generation.MaxDays <= 0 {
		return fmt.Errorf("max_days must be positive, got %d", c.Generation.MaxDays)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s (valid: text, json)", c.Output.Format)
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("DIMSIM_DIFFICULTY"); v != "" {
		config.Generation.Difficulty = v
	}
	if v := os.Getenv("DIMSIM_NUM_EVENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Generation.NumEvents = n
		}
	}
	if v := os.Getenv("DIMSIM_MAX_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Generation.MaxDays = n
		}
	}
	if v := os.Getenv("DIMSIM_OUTPUT_FORMAT"); v != "" {
		config.Output.Format = v
	}
	if v := os.Getenv("DIMSIM_PROGRESS_DB"); v != "" {
		config.Progress.Path = v
	}
	if v := os.Getenv("DIMSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
