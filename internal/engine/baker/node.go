package baker

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/metrics"            //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/script"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/shell"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry"          //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the baker Graft node.
const NodeID graft.ID = "engine.baker"

func init() {
	graft.Register(graft.Node[Deps]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			script.NodeID,
			shell.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
			metrics.NodeID,
		},
		Run: runNode,
	})
}

func runNode(ctx context.Context) (Deps, error) {
	engine, err := graft.Dep[ports.ScriptEngine](ctx)
	if err != nil {
		return Deps{}, err
	}
	runner, err := graft.Dep[ports.Exec](ctx)
	if err != nil {
		return Deps{}, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return Deps{}, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return Deps{}, err
	}
	progress, err := graft.Dep[ports.Progress](ctx)
	if err != nil {
		return Deps{}, err
	}
	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return Deps{}, err
	}
	return Deps{
		Engine:   engine,
		Runner:   runner,
		Logger:   log,
		Tracer:   tracer,
		Progress: progress,
		Metrics:  m,
	}, nil
}
