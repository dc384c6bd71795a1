package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/events"
	"github.com/jfarrand/dimsim/internal/explain"
	"github.com/jfarrand/dimsim/internal/schema"
)

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <schema-file>",
		Short: "Diagnose a schema submission with concrete failing scenarios",
		Long: `Diagnose a schema submission against a scenario's event stream. Instead
of a score, this replays the actual events through the submitted schema
and shows concrete queries that would return wrong answers, with the
correct and observed results side by side.

Examples:
  dimsim explain schema.yaml --seed 42
  dimsim explain schema.yaml --seed 42 --difficulty hard --json`,
		Args: cobra.ExactArgs(1),
		RunE: runExplain,
	}

	addScenarioFlags(cmd)
	addSimulationFlags(cmd)
	cmd.MarkFlagRequired("seed")

	return cmd
}

func runExplain(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
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
	diagnosis, err := explain.NewAnalyzer(cfg, log).Analyze(sub)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"seed":         cfg.Seed,
			"difficulty":   cfg.Difficulty,
			"shop_name":    cfg.ShopName,
			"issues_found": diagnosis.IssuesFound,
			"scenarios":    diagnosis.Scenarios,
			"summary":      diagnosis.Summary,
		})
	}

	fmt.Println(diagnosis.Render())
	return nil
}
