package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/describe"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the business description for a scenario",
		Long: `Print the prose business description for a scenario. This is the
modeling brief: it describes how the shop operates in business language
and never names the underlying modeling hazards.

Examples:
  dimsim describe --seed 42
  dimsim describe --seed 42 --difficulty adversarial`,
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

			text, err := describe.Generate(cfg)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"seed":        cfg.Seed,
					"difficulty":  cfg.Difficulty,
					"shop_name":   cfg.ShopName,
					"description": text,
				})
			}
			fmt.Println(text)
			return nil
		},
	}

	addScenarioFlags(cmd)

	return cmd
}
