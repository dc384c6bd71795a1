package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/session"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run one complete challenge end to end",
		Long: `Run one complete challenge: generate a scenario, write its artifacts
(including a schema scaffold), and, when --schema is given, grade the
submission, diagnose it, and record the attempt.

Without --seed a fresh random scenario is drawn. Re-run with the printed
seed to attempt the same scenario again after revising the schema.

Examples:
  dimsim play
  dimsim play --difficulty hard
  dimsim play --seed 42 --schema schema.yaml`,
		RunE: runPlay,
	}

	addScenarioFlags(cmd)
	addSimulationFlags(cmd)
	cmd.Flags().String("output", "", "Output directory (default: scenario-<seed>)")
	cmd.Flags().String("schema", "", "Schema submission to grade against the scenario")
	cmd.Flags().Bool("no-progress", false, "Do not record this attempt in the progress history")

	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	outputDir, _ := cmd.Flags().GetString("output")
	schemaPath, _ := cmd.Flags().GetString("schema")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

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

	opts := session.Options{
		Seed:         cfg.Seed,
		Difficulty:   cfg.Difficulty,
		NumEvents:    numEvents,
		MaxDays:      maxDays,
		OutputDir:    outputDir,
		WithScaffold: true,
		SchemaPath:   schemaPath,
		Logger:       newLogger(appCfg),
	}
	if schemaPath != "" && !noProgress {
		if opts.ProgressPath, err = appCfg.ProgressPath(); err != nil {
			return err
		}
	}

	res, err := session.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if jsonOut {
		out := map[string]interface{}{
			"seed":        res.Config.Seed,
			"difficulty":  res.Config.Difficulty,
			"shop_name":   res.Config.ShopName,
			"event_count": len(res.Log.Events),
			"artifacts":   res.Artifacts,
		}
		if res.Report != nil {
			out["report"] = res.Report
		}
		if res.Diagnosis != nil {
			out["diagnosis"] = res.Diagnosis
		}
		if res.Outcome != nil {
			out["outcome"] = res.Outcome
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Println(res.Briefing.Render(res.Config.ShopName, res.Config.Seed, len(res.Log.Events)))
	fmt.Printf("Artifacts written to %s\n", outputDir)

	if res.Report == nil {
		fmt.Printf("\nStudy %s, design your schema, then grade it:\n", res.Artifacts.DescriptionPath)
		fmt.Printf("  dimsim play --seed %d --difficulty %s --schema schema.yaml\n", res.Config.Seed, res.Config.Difficulty)
		return nil
	}

	fmt.Println()
	fmt.Println(res.Report.Render())
	if res.Diagnosis != nil && res.Diagnosis.IssuesFound > 0 {
		fmt.Println(res.Diagnosis.Render())
	}
	if res.Outcome != nil {
		if msg := res.Outcome.Message(); msg != "" {
			fmt.Println(msg)
		}
	}
	return nil
}
