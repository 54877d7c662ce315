package main

import (
	"context"

	"github.com/spf13/cobra"

	"autopsy/internal/logging"
	mcpserver "autopsy/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the measurement pipeline
as tools: register_measurement, list_measurements, build_overview,
run_pass1, and get_result.

The server monitors for parent process death. When the client disconnects,
the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, reg, err := openEnv()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	srv := mcpserver.NewServer(store, reg)
	logging.New("mcp").Info("starting autopsy MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
