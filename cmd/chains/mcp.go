package main

import (
	"github.com/aretw0/chains/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [scenario.yaml]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the chains engine as an MCP Server, so AI agents can list, inspect and stop
live chains as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		opts := cli.ServeOptions{Config: cfg, Out: cmd.ErrOrStderr()}
		if len(args) > 0 {
			opts.Scenario = args[0]
		}
		return cli.ServeMCP(cmd.Context(), opts, transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on, only for SSE (overrides http.addr)")
}
