package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/chains"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of chains",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chains version %s\n", strings.TrimSpace(chains.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
