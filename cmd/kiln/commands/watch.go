package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [goals...]",
		Short: "Rebuild products whenever their inputs change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parallelism, _ := cmd.Flags().GetInt("parallelism")
			addr, _ := cmd.Flags().GetString("addr")
			return c.app.Watch(cmd.Context(), args, app.WatchOptions{
				Parallelism: parallelism,
				Addr:        addr,
			})
		},
	}
	cmd.Flags().IntP("parallelism", "j", 0, "Number of products built at once (default from kiln.yaml)")
	cmd.Flags().String("addr", "", "Serve build status over HTTP on this address")
	return cmd
}
