package planner_test

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/planner"
)

func TestRenderDOT(t *testing.T) {
	g := domain.NewDependencyGraph(
		[]string{"app", "objs", "docs"},
		map[string][]string{"app": {"objs"}},
	)
	products := map[string]*domain.Product{
		"app":  domain.NewProduct("app", nil, domain.WithDoc("the \"main\" binary")),
		"objs": domain.NewProduct("objs", nil, domain.AsIntermediate()),
	}

	var buf bytes.Buffer
	require.NoError(t, planner.RenderDOT(&buf, g, products))

	gold := goldie.New(t)
	gold.Assert(t, "graph", buf.Bytes())
}
