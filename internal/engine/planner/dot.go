package planner

import (
	"bufio"
	"io"
	"strconv"

	"go.trai.ch/kiln/internal/core/domain"
)

// RenderDOT writes the graph in Graphviz DOT form. Edges point from a product to its
// prerequisites; intermediate products are dashed.
func RenderDOT(w io.Writer, g *domain.DependencyGraph, products map[string]*domain.Product) error {
	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString("digraph kiln {\n\trankdir=LR;\n\tnode [shape=box];\n")
	for _, name := range g.Nodes() {
		_, _ = bw.WriteString("\t" + strconv.Quote(name))
		if p := products[name]; p != nil {
			var attrs []string
			if p.Intermediate {
				attrs = append(attrs, "style=dashed")
			}
			if p.Doc != "" {
				attrs = append(attrs, "tooltip="+strconv.Quote(p.Doc))
			}
			if len(attrs) > 0 {
				_, _ = bw.WriteString(" [")
				for i, a := range attrs {
					if i > 0 {
						_, _ = bw.WriteString(", ")
					}
					_, _ = bw.WriteString(a)
				}
				_, _ = bw.WriteString("]")
			}
		}
		_, _ = bw.WriteString(";\n")
	}
	for product, prereq := range g.Edges() {
		_, _ = bw.WriteString("\t" + strconv.Quote(product) + " -> " + strconv.Quote(prereq) + ";\n")
	}
	_, _ = bw.WriteString("}\n")
	return bw.Flush()
}
