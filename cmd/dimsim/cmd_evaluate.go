package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/config"
	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/progress"
	"github.com/jfarrand/dimsim/internal/schema"
	"github.com/jfarrand/dimsim/internal/shop"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <schema-file>",
		Short: "Evaluate a schema submission against a scenario",
		Long: `Evaluate a dimensional schema submission (YAML or JSON) against the
event stream of a scenario. The submission is scored across grain
correctness, event preservation, history tracking, semantic clarity,
and relationship integrity, and the attempt is recorded in the local
progress history.

Examples:
  dimsim evaluate schema.yaml --seed 42
  dimsim evaluate schema.yaml --seed 42 --difficulty hard --json
  dimsim evaluate schema.yaml --seed 42 --no-progress`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluate,
	}

	addScenarioFlags(cmd)
	addSimulationFlags(cmd)
	cmd.Flags().Bool("no-progress", false, "Do not record this attempt in the progress history")
	cmd.MarkFlagRequired("seed")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	schemaPath := args[0]

	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveScenario(cmd, appCfg)
	if err != nil {
		return err
	}
	numEvents, maxDays := resolveBudget(cmd, appCfg)

	sub, err := schema.ParseFile(schemaPath)
	if err != nil {
		return err
	}

	log, err := events.NewSimulator(cfg).Simulate(numEvents, maxDays)
	if err != nil {
		return err
	}
	report, err := evaluator.Evaluate(cfg, log, sub)
	if err != nil {
		return err
	}

	var outcome progress.Outcome
	if !noProgress {
		outcome, err = recordAttempt(cmd, appCfg, cfg, sub, report)
		if err != nil {
			return err
		}
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"seed":           cfg.Seed,
			"difficulty":     cfg.Difficulty,
			"shop_name":      cfg.ShopName,
			"total_score":    report.TotalScore,
			"max_score":      report.MaxScore,
			"percentage":     report.Percentage(),
			"weighted_score": report.WeightedScore,
			"report":         report,
			"outcome":        outcome,
		})
	}

	fmt.Println(report.Render())
	if msg := outcome.Message(); msg != "" {
		fmt.Println(msg)
	}
	return nil
}

// recordAttempt writes the attempt to the progress store.
func recordAttempt(cmd *cobra.Command, appCfg *config.Config, cfg *shop.Config, sub *schema.Submission, report *evaluator.Report) (progress.Outcome, error) {
	path, err := appCfg.ProgressPath()
	if err != nil {
		return progress.Outcome{}, err
	}
	store, err := progress.Open(path)
	if err != nil {
		return progress.Outcome{}, err
	}
	defer store.Close()

	return store.Record(cmd.Context(), cfg.Seed, cfg.Difficulty, sub.Hash(), report)
}
