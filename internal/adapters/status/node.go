package status

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/telemetry"
)

// NodeID is the unique identifier for the status server factory Graft node.
const NodeID graft.ID = "adapter.status"

// Factory creates a status server reporting on a build state.
type Factory func(source Source) *Server

func init() {
	gin.SetMode(gin.ReleaseMode)

	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{telemetry.SpanLogNodeID, metrics.RecorderNodeID},
		Run: func(ctx context.Context) (Factory, error) {
			spans, err := graft.Dep[*telemetry.SpanLog](ctx)
			if err != nil {
				return nil, err
			}
			rec, err := graft.Dep[*metrics.Recorder](ctx)
			if err != nil {
				return nil, err
			}
			return func(source Source) *Server {
				return New(source, spans, rec.Gatherer())
			}, nil
		},
	})
}
