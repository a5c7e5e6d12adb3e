package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

func (c *CLI) newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the defined products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.app.Products(cmd.Context())
			if err != nil {
				return err
			}
			return writeProducts(output.New(cmd.OutOrStdout()), products)
		},
	}
}

func writeProducts(out *termenv.Output, products []*domain.Product) error {
	var b strings.Builder
	for _, p := range products {
		b.WriteString(output.Paint(out, style.Ember, p.Name))
		if p.Intermediate {
			b.WriteString(output.Paint(out, style.Slate, " (intermediate)"))
		}
		if p.Source != "" {
			b.WriteString(output.Paint(out, style.Slate, "  "+p.Source))
		}
		b.WriteString("\n")
		if p.Doc != "" {
			b.WriteString("    " + p.Doc + "\n")
		}
	}
	_, err := io.WriteString(out, b.String())
	if err != nil {
		return fmt.Errorf("write products: %w", err)
	}
	return nil
}
