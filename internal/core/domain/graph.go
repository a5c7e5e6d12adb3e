// Package domain contains the core domain models and algorithms of the build orchestrator.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// DependencyGraph is an immutable snapshot of the products known at one point in time
// and the prerequisites inferred between them.
type DependencyGraph struct {
	nodes   []string
	present map[string]struct{}
	prereqs map[string][]string
}

// NewDependencyGraph builds a graph from product names and their direct prerequisites.
// Self edges and edges to unknown products are dropped.
func NewDependencyGraph(nodes []string, prereqs map[string][]string) *DependencyGraph {
	g := &DependencyGraph{
		nodes:   slices.Clone(nodes),
		present: make(map[string]struct{}, len(nodes)),
		prereqs: make(map[string][]string, len(prereqs)),
	}
	slices.Sort(g.nodes)
	g.nodes = slices.Compact(g.nodes)
	for _, n := range g.nodes {
		g.present[n] = struct{}{}
	}
	for name, deps := range prereqs {
		if _, ok := g.present[name]; !ok {
			continue
		}
		var kept []string
		for _, d := range deps {
			if _, ok := g.present[d]; ok && d != name {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			continue
		}
		slices.Sort(kept)
		g.prereqs[name] = slices.Compact(kept)
	}
	return g
}

// Nodes returns the product names in sorted order.
func (g *DependencyGraph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Len returns the number of products.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// Has reports whether the product is part of the graph.
func (g *DependencyGraph) Has(name string) bool {
	_, ok := g.present[name]
	return ok
}

// Prerequisites returns the sorted direct prerequisites of a product.
func (g *DependencyGraph) Prerequisites(name string) []string {
	return slices.Clone(g.prereqs[name])
}

// Edges yields (product, prerequisite) pairs in sorted order.
func (g *DependencyGraph) Edges() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, n := range g.nodes {
			for _, d := range g.prereqs[n] {
				if !yield(n, d) {
					return
				}
			}
		}
	}
}

// EdgeCount returns the number of prerequisite edges.
func (g *DependencyGraph) EdgeCount() int {
	count := 0
	for _, deps := range g.prereqs {
		count += len(deps)
	}
	return count
}

// Subgraph returns the graph induced by the goals and everything they transitively need.
func (g *DependencyGraph) Subgraph(goals []string) (*DependencyGraph, error) {
	if err := g.checkGoals(goals); err != nil {
		return nil, err
	}
	nodes := g.induced(goals)
	prereqs := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		prereqs[n] = g.prereqs[n]
	}
	return NewDependencyGraph(nodes, prereqs), nil
}

func (g *DependencyGraph) checkGoals(goals []string) error {
	var missing []string
	for _, goal := range goals {
		if !g.Has(goal) && !slices.Contains(missing, goal) {
			missing = append(missing, goal)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err := zerr.Wrap(ErrMissingGoal, "unknown products: "+strings.Join(missing, ", "))
	return zerr.With(err, "products", missing)
}

// induced walks prerequisite edges depth first from the goals and returns the sorted result.
func (g *DependencyGraph) induced(goals []string) []string {
	visited := make(map[string]struct{}, len(goals))
	stack := slices.Clone(goals)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		stack = append(stack, g.prereqs[n]...)
	}
	out := make([]string, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// MakeRecipe builds the scheduling structure for the goals.
//
// It fails with ErrMissingGoal, listing every unknown goal, before looking at any edge,
// and with ErrDependencyCycle when the goals need products that depend on each other.
func (g *DependencyGraph) MakeRecipe(goals []string) (*Recipe, error) {
	if err := g.checkGoals(goals); err != nil {
		return nil, err
	}

	nodes := g.induced(goals)
	inSub := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		inSub[n] = struct{}{}
	}
	postreqs := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		for _, d := range g.prereqs[n] {
			postreqs[d] = append(postreqs[d], n)
		}
	}

	c := &recipeCook{
		graph:       g,
		postreqs:    postreqs,
		ingredients: make(map[string]*Ingredient, len(nodes)),
		active:      make(map[string]int),
	}

	var starts []*Ingredient
	for _, n := range nodes {
		if len(g.prereqs[n]) > 0 {
			continue
		}
		if err := c.process(n); err != nil {
			return nil, err
		}
		starts = append(starts, c.ingredients[n])
	}

	// A cycle leaves part of the subgraph unreachable from the starting points.
	complete := true
	for _, goal := range goals {
		if _, ok := c.ingredients[goal]; !ok {
			complete = false
			break
		}
	}
	if !complete {
		for _, n := range nodes {
			if err := c.process(n); err != nil {
				return nil, err
			}
		}
	}

	for _, ing := range c.ingredients {
		slices.SortFunc(ing.Postrequisites, func(a, b *Ingredient) int {
			return strings.Compare(a.Product, b.Product)
		})
	}
	return &Recipe{Starts: starts}, nil
}

type recipeCook struct {
	graph       *DependencyGraph
	postreqs    map[string][]string
	ingredients map[string]*Ingredient
	processing  []string
	active      map[string]int
}

// process creates the ingredient for name after its prerequisites, then continues with
// every postrequisite whose prerequisites are all in place.
func (c *recipeCook) process(name string) error {
	if _, done := c.ingredients[name]; done {
		return nil
	}
	if i, ok := c.active[name]; ok {
		cycle := strings.Join(append(slices.Clone(c.processing[i:]), name), " -> ")
		return zerr.With(zerr.Wrap(ErrDependencyCycle, cycle), "cycle", cycle)
	}

	c.active[name] = len(c.processing)
	c.processing = append(c.processing, name)
	prereqs := c.graph.prereqs[name]
	for _, d := range prereqs {
		if err := c.process(d); err != nil {
			return err
		}
	}
	c.processing = c.processing[:len(c.processing)-1]
	delete(c.active, name)

	ing := &Ingredient{Product: name, Prerequisites: slices.Clone(prereqs)}
	c.ingredients[name] = ing
	for _, d := range prereqs {
		pre := c.ingredients[d]
		pre.Postrequisites = append(pre.Postrequisites, ing)
	}

	for _, next := range c.postreqs[name] {
		if _, busy := c.active[next]; busy || !c.ready(next) {
			continue
		}
		if err := c.process(next); err != nil {
			return err
		}
	}
	return nil
}

func (c *recipeCook) ready(name string) bool {
	for _, d := range c.graph.prereqs[name] {
		if _, ok := c.ingredients[d]; !ok {
			return false
		}
	}
	return true
}
