package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/briefing"
	"github.com/jfarrand/dimsim/internal/shop"
)

func newTrapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traps",
		Short: "List the modeling traps enabled for a scenario",
		Long: `List the modeling traps a scenario's configuration enables, grouped by
category. This is the answer key; use it after an attempt, or to build
a scenario briefing for someone else.

With --all, list the full trap catalog instead of a single scenario.

Examples:
  dimsim traps --seed 42 --difficulty hard
  dimsim traps --all`,
		RunE: runTraps,
	}

	addScenarioFlags(cmd)
	cmd.Flags().Bool("all", false, "List the full trap catalog instead of one scenario")

	return cmd
}

func runTraps(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	allFlag, _ := cmd.Flags().GetBool("all")

	if allFlag {
		if jsonOut {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"traps": shop.Catalog,
				"count": len(shop.Catalog),
			})
		}
		fmt.Printf("Trap catalog (%d):\n\n", len(shop.Catalog))
		for _, trap := range shop.Catalog {
			fmt.Printf("  [%s] %s (%s)\n", trap.Category, trap.Name, trap.ID)
			fmt.Printf("      %s\n", trap.Threat)
			fmt.Printf("      Appears from: %s\n", trap.MinDifficulty)
		}
		return nil
	}

	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveScenario(cmd, appCfg)
	if err != nil {
		return err
	}

	brief := briefing.New(cfg)
	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"seed":       cfg.Seed,
			"difficulty": cfg.Difficulty,
			"shop_name":  cfg.ShopName,
			"traps":      brief.Traps,
			"count":      len(brief.Traps),
		})
	}

	fmt.Printf("%s (seed %d, %s): %d traps enabled\n\n", cfg.ShopName, cfg.Seed, cfg.Difficulty, len(brief.Traps))
	for _, group := range brief.TrapsByCategory() {
		fmt.Printf("  %s\n", group[0].Category)
		for _, trap := range group {
			fmt.Printf("    - %s (%s)\n", trap.Name, trap.ConfigSource)
			fmt.Printf("      %s\n", trap.Threat)
		}
	}
	return nil
}
