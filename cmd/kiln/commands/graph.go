package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [goals...]",
		Short: "Print the product dependency graph in DOT format",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Graph(cmd.Context(), args, cmd.OutOrStdout())
		},
	}
}
