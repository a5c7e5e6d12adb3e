package domain_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestNewDependencyGraph_DropsDanglingEdges(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"b", "a", "a"},
		map[string][]string{
			"a":     {"b", "a", "ghost"},
			"ghost": {"a"},
		},
	)

	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	assert.Equal(t, []string{"b"}, g.Prerequisites("a"))
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.Has("a"))
	assert.False(t, g.Has("ghost"))
}

func TestDependencyGraph_Edges(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"a", "b", "c"},
		map[string][]string{"c": {"b", "a"}, "b": {"a"}},
	)

	var got [][2]string
	for p, d := range g.Edges() {
		got = append(got, [2]string{p, d})
	}
	assert.Equal(t, [][2]string{{"b", "a"}, {"c", "a"}, {"c", "b"}}, got)
}

func TestMakeRecipe_Chain(t *testing.T) {
	// B consumes what A produces.
	g := domain.NewDependencyGraph([]string{"A", "B"}, map[string][]string{"B": {"A"}})

	recipe, err := g.MakeRecipe([]string{"B"})
	require.NoError(t, err)

	require.Len(t, recipe.Starts, 1)
	a := recipe.Starts[0]
	assert.Equal(t, "A", a.Product)
	assert.Empty(t, a.Prerequisites)
	require.Len(t, a.Postrequisites, 1)
	assert.Equal(t, "B", a.Postrequisites[0].Product)
	assert.Equal(t, []string{"A"}, a.Postrequisites[0].Prerequisites)
	assert.Equal(t, []string{"A", "B"}, recipe.Products())
}

func TestMakeRecipe_OnlyInducedSubgraph(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"lib", "app", "docs", "test"},
		map[string][]string{"app": {"lib"}, "test": {"app"}},
	)

	recipe, err := g.MakeRecipe([]string{"app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "app"}, recipe.Products())
	assert.Equal(t, 2, recipe.Len())
}

func TestMakeRecipe_Diamond(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"base", "left", "right", "top"},
		map[string][]string{
			"left":  {"base"},
			"right": {"base"},
			"top":   {"left", "right"},
		},
	)

	recipe, err := g.MakeRecipe([]string{"top"})
	require.NoError(t, err)

	require.Len(t, recipe.Starts, 1)
	base := recipe.Starts[0]
	require.Len(t, base.Postrequisites, 2)
	assert.Equal(t, "left", base.Postrequisites[0].Product)
	assert.Equal(t, "right", base.Postrequisites[1].Product)

	top := base.Postrequisites[0].Postrequisites[0]
	assert.Equal(t, "top", top.Product)
	assert.Same(t, top, base.Postrequisites[1].Postrequisites[0])
	assert.Equal(t, 4, recipe.Len())
}

func TestMakeRecipe_MultipleStarts(t *testing.T) {
	g := domain.NewDependencyGraph([]string{"x", "y", "z"}, map[string][]string{"z": {"x", "y"}})

	recipe, err := g.MakeRecipe([]string{"z", "x"})
	require.NoError(t, err)

	starts := make([]string, len(recipe.Starts))
	for i, s := range recipe.Starts {
		starts[i] = s.Product
	}
	assert.Equal(t, []string{"x", "y"}, starts)
}

func TestMakeRecipe_MissingGoals(t *testing.T) {
	g := domain.NewDependencyGraph([]string{"a"}, nil)

	_, err := g.MakeRecipe([]string{"nope", "a", "gone", "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingGoal))

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, []string{"nope", "gone"}, zErr.Metadata()["products"])
}

func TestMakeRecipe_Cycle(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []string
		prereqs map[string][]string
		goals   []string
		cycle   string
	}{
		{
			name:    "TwoNodes",
			nodes:   []string{"a", "b", "c"},
			prereqs: map[string][]string{"a": {"b"}, "b": {"a"}},
			goals:   []string{"a", "c"},
			cycle:   "a -> b -> a",
		},
		{
			name:    "BehindLeaf",
			nodes:   []string{"leaf", "x", "y"},
			prereqs: map[string][]string{"x": {"leaf", "y"}, "y": {"x"}},
			goals:   []string{"x"},
			cycle:   "x -> y -> x",
		},
		{
			name:    "ThreeNodes",
			nodes:   []string{"p", "q", "r"},
			prereqs: map[string][]string{"p": {"q"}, "q": {"r"}, "r": {"p"}},
			goals:   []string{"q"},
			cycle:   "p -> q -> r -> p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewDependencyGraph(tt.nodes, tt.prereqs)

			recipe, err := g.MakeRecipe(tt.goals)
			require.Error(t, err)
			assert.Nil(t, recipe)
			assert.True(t, errors.Is(err, domain.ErrDependencyCycle))

			zErr, ok := err.(*zerr.Error)
			require.True(t, ok, "expected *zerr.Error, got %T", err)
			assert.Equal(t, tt.cycle, zErr.Metadata()["cycle"])
		})
	}
}

func TestMakeRecipe_CycleOutsideGoalsIsIgnored(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"ok", "a", "b"},
		map[string][]string{"a": {"b"}, "b": {"a"}},
	)

	recipe, err := g.MakeRecipe([]string{"ok"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, recipe.Products())
}

func TestDependencyGraph_Subgraph(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"lib", "app", "docs"},
		map[string][]string{"app": {"lib"}},
	)

	sub, err := g.Subgraph([]string{"app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "lib"}, sub.Nodes())
	assert.Equal(t, 1, sub.EdgeCount())

	_, err = g.Subgraph([]string{"missing"})
	assert.True(t, errors.Is(err, domain.ErrMissingGoal))
}

func TestMakeRecipe_EveryIngredientOnce(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e"}
	g := domain.NewDependencyGraph(nodes, map[string][]string{
		"b": {"a"},
		"c": {"a", "b"},
		"d": {"c"},
		"e": {"b", "d"},
	})

	recipe, err := g.MakeRecipe(nodes)
	require.NoError(t, err)

	products := recipe.Products()
	slices.Sort(products)
	assert.Equal(t, nodes, products)
}
