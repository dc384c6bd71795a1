package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/scaffold"
)

func newScaffoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scaffold",
		Short: "Print a starting-point schema skeleton for a scenario",
		Long: `Print a schema scaffold for a scenario: a parseable YAML submission
with the obvious tables filled in and the genuinely hard modeling
decisions left as open questions. Some of its defaults are deliberately
naive; part of the exercise is spotting which ones.

Examples:
  dimsim scaffold --seed 42 > schema.yaml
  dimsim scaffold --seed 42 --difficulty hard --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			appCfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg, err := resolveScenario(cmd, appCfg)
			if err != nil {
				return err
			}

			sc := scaffold.Generate(cfg)
			text, err := sc.Render()
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"seed":       cfg.Seed,
					"difficulty": cfg.Difficulty,
					"scaffold":   text,
					"todos":      sc.Todos,
					"warnings":   sc.Warnings,
				})
			}
			fmt.Print(text)
			return nil
		},
	}

	addScenarioFlags(cmd)

	return cmd
}
