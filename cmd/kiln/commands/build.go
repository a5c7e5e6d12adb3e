package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [goals...]",
		Short: "Build products and everything they depend on",
		Long:  "Build the named products, or every product not marked intermediate when none are named.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parallelism, _ := cmd.Flags().GetInt("parallelism")
			return c.app.Build(cmd.Context(), args, app.BuildOptions{
				Parallelism: parallelism,
			})
		},
	}
	cmd.Flags().IntP("parallelism", "j", 0, "Number of products built at once (default from kiln.yaml)")
	return cmd
}
