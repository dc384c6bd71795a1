package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jfarrand/dimsim/internal/config"
	"github.com/jfarrand/dimsim/internal/logging"
	"github.com/jfarrand/dimsim/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server for agent integration",
		Long: `Run dimsim as a Model Context Protocol server over stdio.

Exposes the scenario tools (generate_scenario, get_description,
get_scaffold, evaluate_schema, explain_schema) so an agent can play
challenges without shelling out to the CLI. Scenario generation is
deterministic, so the server holds no state between calls.

Typically configured in an MCP client, e.g.:
  {"command": "dimsim", "args": ["mcp-server"]}`,
		RunE: runMCPServer,
	}

	cmd.Flags().Bool("no-progress", false, "Do not record evaluate_schema attempts in the progress history")

	return cmd
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	appCfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Stdout carries the MCP protocol; all logging goes to stderr.
	logger := newLogger(appCfg)

	serverCfg := mcp.Config{
		Name:      "dimsim",
		Version:   version,
		NumEvents: appCfg.Generation.NumEvents,
		MaxDays:   appCfg.Generation.MaxDays,
		Logger:    logger,
	}
	if !noProgress {
		if serverCfg.ProgressPath, err = appCfg.ProgressPath(); err != nil {
			return err
		}
	}
	if dir, err := config.Dir(); err == nil {
		serverCfg.Audit = logging.NewAuditLogger(dir, appCfg.Logging.Level)
	}

	server := mcp.NewServer(serverCfg)
	logger.Info("starting mcp server", "version", version)

	if err := server.Run(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server stopped: %v\n", err)
		return err
	}
	return nil
}
