package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/progress"
	"github.com/jfarrand/dimsim/internal/shop"
)

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show attempt history",
		Long: `Show attempt history from the local progress store.

Without flags, lists every scenario attempted. With --seed, shows the
full history for that scenario including score trend and personal best.

Examples:
  dimsim progress
  dimsim progress --seed 42 --difficulty hard`,
		RunE: runProgress,
	}

	addScenarioFlags(cmd)

	return cmd
}

func runProgress(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := appCfg.ProgressPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"scenarios": []progress.Scenario{},
				"count":     0,
			})
		}
		fmt.Println("No attempts recorded yet. Grade a schema with 'dimsim evaluate' first.")
		return nil
	}

	store, err := progress.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cmd.Flags().Changed("seed") {
		return showScenarioProgress(cmd, store, jsonOut)
	}

	scenarios, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"scenarios": scenarios,
			"count":     len(scenarios),
		})
	}

	if len(scenarios) == 0 {
		fmt.Println("No attempts recorded yet. Grade a schema with 'dimsim evaluate' first.")
		return nil
	}

	fmt.Printf("Attempted scenarios (%d):\n\n", len(scenarios))
	for _, sc := range scenarios {
		fmt.Printf("  seed %d, %s: best %.0f%% over %d attempt(s)\n",
			sc.Seed, sc.Difficulty, sc.BestPercentage, sc.AttemptCount)
	}
	fmt.Println("\nUse --seed to see the full history for one scenario.")
	return nil
}

func showScenarioProgress(cmd *cobra.Command, store *progress.Store, jsonOut bool) error {
	seed, _ := cmd.Flags().GetInt64("seed")
	difficultyStr, _ := cmd.Flags().GetString("difficulty")
	difficulty, err := shop.ParseDifficulty(difficultyStr)
	if err != nil {
		return err
	}

	scenario, err := store.Get(cmd.Context(), seed, difficulty)
	if err != nil {
		return err
	}
	if scenario == nil {
		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"error":      "no attempts for scenario",
				"seed":       seed,
				"difficulty": difficulty,
			})
		}
		fmt.Printf("No attempts recorded for seed %d at %s difficulty.\n", seed, difficulty)
		return nil
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(scenario)
	}
	fmt.Println(scenario.Render(time.Now()))
	return nil
}
