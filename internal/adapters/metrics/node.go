package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// RecorderNodeID is the unique identifier for the concrete metrics recorder Graft node.
	RecorderNodeID graft.ID = "adapter.metrics.recorder"
	// NodeID is the unique identifier for the ports.Metrics Graft node.
	NodeID graft.ID = "adapter.metrics"
)

func init() {
	graft.Register(graft.Node[*Recorder]{
		ID:        RecorderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Recorder, error) {
			return New(), nil
		},
	})

	graft.Register(graft.Node[ports.Metrics]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{RecorderNodeID},
		Run: func(ctx context.Context) (ports.Metrics, error) {
			rec, err := graft.Dep[*Recorder](ctx)
			if err != nil {
				return nil, err
			}
			return rec, nil
		},
	})
}
