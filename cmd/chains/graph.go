package main

import (
	"fmt"

	"github.com/aretw0/chains/internal/presentation/graph"
	"github.com/aretw0/chains/pkg/scenario"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <scenario.yaml>",
	Short: "Export the scenario as a Mermaid diagram",
	Long:  `Outputs a Mermaid diagram (graph TD) with one subgraph per chain.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		if err := doc.Validate(); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
