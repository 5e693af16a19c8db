package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/wire"
)

// AgentCmd returns the agent command
func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Metadata for automated callers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "capabilities",
		Short: "List commands with risk level and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdAgentCapabilities, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AgentCapabilities(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "feature-contract",
		Short: "Show the feature synchronization contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cliadapter.CmdAgentFeatureContract, func(ctx context.Context, h *cliadapter.Handlers) cliadapter.Envelope {
				return h.AgentFeatureContract(ctx)
			})
		},
	})

	return cmd
}

// MCPCmd returns the mcp command
func MCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve every command as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := wire.MCPServer()
			if err != nil {
				return fmt.Errorf("failed to start mcp server: %w", err)
			}
			return s.ServeStdio()
		},
	})

	return cmd
}

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build and contract versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd, cliadapter.VersionEnvelope())
		},
	}
}
