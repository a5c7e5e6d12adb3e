package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the working directory and artifact archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return c.app.Clean(cmd.Context(), app.CleanOptions{All: all})
		},
	}
	cmd.Flags().Bool("all", false, "Also remove build records and the file index")
	return cmd
}
