package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/palaver/internal/adapters/driving/mcp"
	"github.com/custodia-labs/palaver/internal/core/services"
	"github.com/custodia-labs/palaver/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so other assistants can use
this session.

Tools: ask, list_models, set_mode.
Resources: palaver://conversation, palaver://mode, palaver://settings.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead, for the MCP Inspector or remote access.

Examples:
  # Stdio mode (default)
  palaver mcp serve

  # HTTP mode
  palaver mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "palaver": {
        "command": "/path/to/palaver",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	// stdout carries JSON-RPC in stdio mode
	rt, err := connect(cmd, services.WithNotifier(func(model string) {
		logger.Info("model changed to: %s", model)
	}))
	if err != nil {
		return err
	}
	defer rt.Close()

	server, err := mcp.NewServer(&mcp.Ports{
		Session:  rt.session,
		Modes:    rt.modes,
		Settings: deps.Settings,
	})
	if err != nil {
		return err
	}

	stop := watchPrompts(cmd.Context())
	defer stop()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
