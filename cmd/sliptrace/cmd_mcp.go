package main

import (
	"fmt"

	"github.com/nvandessel/sliptrace/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve trace generation tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing:

  sliptrace_generate   run the scenario (or replay values) and write a trace
  sliptrace_verify     check a trace file
  sliptrace_runs       list the run ledger

Client-supplied paths are confined to the project root and the configured
trace directories. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "sliptrace",
				Version:  version,
				Root:     root,
				Settings: cfg,
				Logger:   newLogger(cmd, cfg),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(cmd.Context())
		},
	}
}
