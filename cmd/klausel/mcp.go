package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vertragslab/klausel/internal/mcp"
	"github.com/vertragslab/klausel/internal/store"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analyzer as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			runner, err := buildRunner(cfg)
			if err != nil {
				return err
			}
			st, err := store.NewStore(cfg.DBPath.Value)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := mcp.NewServer(mcp.ServerConfig{Runner: runner, Store: st, Version: version})
			if err := mcpserver.ServeStdio(srv); err != nil {
				return fmt.Errorf("serving mcp: %w", err)
			}
			return nil
		},
	}
}
