// Package commands implements the CLI commands for the kiln build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	setJSON func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, goals []string, opts app.BuildOptions) error
	Graph(ctx context.Context, goals []string, w io.Writer) error
	Products(ctx context.Context) ([]*domain.Product, error)
	Watch(ctx context.Context, goals []string, opts app.WatchOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// Option configures the CLI.
type Option func(*CLI)

// WithJSONToggle registers the function the --json flag switches log output with.
func WithJSONToggle(fn func(bool)) Option {
	return func(c *CLI) { c.setJSON = fn }
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "An incremental build orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if jsonLogs, _ := cmd.Flags().GetBool("json"); jsonLogs && c.setJSON != nil {
			c.setJSON(true)
		}
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newProductsCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
