package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/session"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scenario and write its artifacts",
		Long: `Generate a shop scenario for a seed and difficulty, simulate its event
stream, and write the challenge artifacts (shop config, events, business
description, and optionally a schema scaffold) to the output directory.

The same seed and difficulty always produce the same scenario.

Examples:
  dimsim generate --seed 42
  dimsim generate --seed 42 --difficulty hard --events 2000 --scaffold
  dimsim generate --seed 42 --output ./challenge --json`,
		RunE: runGenerate,
	}

	addScenarioFlags(cmd)
	addSimulationFlags(cmd)
	cmd.Flags().String("output", "", "Output directory (default: scenario-<seed>)")
	cmd.Flags().Bool("scaffold", false, "Also write a starting-point schema scaffold")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	outputDir, _ := cmd.Flags().GetString("output")
	withScaffold, _ := cmd.Flags().GetBool("scaffold")

	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveScenario(cmd, appCfg)
	if err != nil {
		return err
	}
	numEvents, maxDays := resolveBudget(cmd, appCfg)

	if outputDir == "" {
		outputDir = fmt.Sprintf("scenario-%d", cfg.Seed)
	}

	res, err := session.Run(cmd.Context(), session.Options{
		Seed:         cfg.Seed,
		Difficulty:   cfg.Difficulty,
		NumEvents:    numEvents,
		MaxDays:      maxDays,
		OutputDir:    outputDir,
		WithScaffold: withScaffold,
		Logger:       newLogger(appCfg),
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"seed":           res.Config.Seed,
			"difficulty":     res.Config.Difficulty,
			"shop_name":      res.Config.ShopName,
			"event_count":    len(res.Log.Events),
			"days_simulated": res.Log.DaysSimulated,
			"truncated":      res.Log.Truncated,
			"artifacts":      res.Artifacts,
		})
	}

	fmt.Println(res.Briefing.Render(res.Config.ShopName, res.Config.Seed, len(res.Log.Events)))
	fmt.Printf("Artifacts written to %s:\n", outputDir)
	fmt.Printf("  %s\n", res.Artifacts.ConfigPath)
	fmt.Printf("  %s\n", res.Artifacts.EventsPath)
	fmt.Printf("  %s\n", res.Artifacts.DescriptionPath)
	if res.Artifacts.ScaffoldPath != "" {
		fmt.Printf("  %s\n", res.Artifacts.ScaffoldPath)
	}
	return nil
}
