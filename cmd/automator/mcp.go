package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/automator/internal/cli"
	"github.com/aretw0/automator/pkg/adapters/mcp"
	"github.com/aretw0/automator/pkg/groups"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the condition group service as an MCP Server.
This allows AI agents to discover condition types and edit a recipe's groups as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	if transport != "stdio" && transport != "sse" {
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}

	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	deps, err := cli.Build(sigCtx, cfg, logger, groups.WithHooks(cli.DebugHooks(logger)))
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Reloader != nil {
		go func() {
			if err := deps.Reloader.Run(sigCtx); err != nil {
				logger.Error("Catalog watcher stopped", "err", err)
			}
		}()
	}

	srv := mcp.NewServer(deps.Service, deps.Catalog, version(), mcp.WithLogger(logger))

	switch transport {
	case "sse":
		logger.Info("Starting automator MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server execution failed: %w", err)
		}
		logger.Info("MCP Server stopped gracefully")
	default:
		// Logs go to stderr; stdout carries JSON-RPC.
		logger.Info("Starting automator MCP Server (Stdio)")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server execution failed: %w", err)
		}
	}
	return nil
}
