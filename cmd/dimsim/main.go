package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/config"
	"github.com/jfarrand/dimsim/internal/logging"
	"github.com/jfarrand/dimsim/internal/shop"
)

// Set via ldflags at release time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dimsim",
		Short: "Dimensional modeling simulator - practice star schemas against hostile data",
		Long: `dimsim generates deterministic retail scenarios that are deliberately
hard to model, simulates their event streams, and grades dimensional
schema submissions against what the data actually did.

A scenario is fully determined by its seed and difficulty, so the same
challenge can be regenerated, shared, and re-attempted at any time.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newDescribeCmd(),
		newScaffoldCmd(),
		newTrapsCmd(),
		newEvaluateCmd(),
		newExplainCmd(),
		newPlayCmd(),
		newProgressCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the layered configuration and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the operational logger. Commands log to stderr so
// stdout stays parseable.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

// addScenarioFlags registers the flags shared by every command that
// addresses a scenario. Flag defaults come from the built-in defaults;
// file and environment overrides are applied at run time.
func addScenarioFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().Int64("seed", 0, "Scenario seed (default: derived from the current time)")
	cmd.Flags().String("difficulty", defaults.Generation.Difficulty, "Difficulty: easy, medium, hard, adversarial")
}

// addSimulationFlags registers the event budget flags used by commands
// that replay the event stream.
func addSimulationFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().Int("events", defaults.Generation.NumEvents, "Number of events to simulate")
	cmd.Flags().Int("days", defaults.Generation.MaxDays, "Maximum business days to simulate")
}

// resolveScenario turns the scenario flags into a generated shop config.
// An unset seed falls back to a time-derived one so 'dimsim play' works
// with no arguments. Flags the user did not set defer to the loaded
// configuration.
func resolveScenario(cmd *cobra.Command, appCfg *config.Config) (*shop.Config, error) {
	seed, _ := cmd.Flags().GetInt64("seed")
	if !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	difficultyStr, _ := cmd.Flags().GetString("difficulty")
	if !cmd.Flags().Changed("difficulty") {
		difficultyStr = appCfg.Generation.Difficulty
	}
	difficulty, err := shop.ParseDifficulty(difficultyStr)
	if err != nil {
		return nil, err
	}
	return shop.Generate(seed, difficulty)
}

// resolveBudget applies the same flag-over-config precedence to the
// simulation budget.
func resolveBudget(cmd *cobra.Command, appCfg *config.Config) (numEvents, maxDays int) {
	numEvents, _ = cmd.Flags().GetInt("events")
	if !cmd.Flags().Changed("events") {
		numEvents = appCfg.Generation.NumEvents
	}
	maxDays, _ = cmd.Flags().GetInt("days")
	if !cmd.Flags().Changed("days") {
		maxDays = appCfg.Generation.MaxDays
	}
	return numEvents, maxDays
}
