package main

import (
	"github.com/aretw0/chains/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [scenario.yaml]",
	Short: "Start the HTTP control API",
	Long: `Runs the chains engine and exposes the live chains over HTTP: listing, inspection,
stopping, an SSE event stream and Prometheus metrics. An optional scenario is started
at boot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		opts := cli.ServeOptions{Config: cfg, Out: cmd.OutOrStdout()}
		if len(args) > 0 {
			opts.Scenario = args[0]
		}
		return cli.Serve(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
