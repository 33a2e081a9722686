package main

import (
	"github.com/aretw0/chains/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Play a scenario until every chain has finished",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		serve, _ := cmd.Flags().GetBool("serve")
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		return cli.RunScenario(cmd.Context(), cli.RunOptions{
			Config:  cfg,
			Path:    args[0],
			Out:     cmd.OutOrStdout(),
			Verbose: verbose,
			Quiet:   quiet,
			Serve:   serve,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Print every step activation")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	runCmd.Flags().Bool("serve", false, "Serve the control API while the scenario runs")
	runCmd.Flags().String("addr", "", "Control API address (overrides http.addr)")
}
