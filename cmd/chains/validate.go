package main

import (
	"fmt"

	"github.com/aretw0/chains/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check a scenario for consistency",
	Long:  `Parses the scenario, reports every structural problem and checks play steps against the audio catalog.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		doc, err := cli.ValidateScenario(cfg, args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Scenario is valid: %d chains, group %s ✅\n", len(doc.Chains), doc.Group)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
