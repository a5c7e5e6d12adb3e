package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/filestore" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/plan"      //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/status"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.trai.ch/kiln/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			filestore.NodeID,
			cas.NodeID,
			watcher.NodeID,
			plan.NodeID,
			baker.NodeID,
			scheduler.NodeID,
			status.NodeID,
			metrics.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(a, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	openFiles, err := graft.Dep[ports.FileStoreOpener](ctx)
	if err != nil {
		return nil, err
	}
	openRecords, err := graft.Dep[ports.BuildRecordStoreOpener](ctx)
	if err != nil {
		return nil, err
	}
	openWatcher, err := graft.Dep[ports.WatcherOpener](ctx)
	if err != nil {
		return nil, err
	}
	plans, err := graft.Dep[ports.PlanLoader](ctx)
	if err != nil {
		return nil, err
	}
	bakerDeps, err := graft.Dep[baker.Deps](ctx)
	if err != nil {
		return nil, err
	}
	cooker, err := graft.Dep[*scheduler.Cooker](ctx)
	if err != nil {
		return nil, err
	}
	newStatus, err := graft.Dep[status.Factory](ctx)
	if err != nil {
		return nil, err
	}
	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(Deps{
		ConfigLoader: loader,
		OpenFiles:    openFiles,
		OpenRecords:  openRecords,
		OpenWatcher:  openWatcher,
		Plans:        plans,
		Baker:        bakerDeps,
		Cooker:       cooker,
		Status:       newStatus,
		Metrics:      m,
		Tracer:       tracer,
		Logger:       log,
	}), nil
}
