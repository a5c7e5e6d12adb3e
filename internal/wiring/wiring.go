// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/kiln/internal/adapters/cas"
	_ "go.trai.ch/kiln/internal/adapters/config"
	_ "go.trai.ch/kiln/internal/adapters/filestore"
	_ "go.trai.ch/kiln/internal/adapters/logger"
	_ "go.trai.ch/kiln/internal/adapters/metrics"
	_ "go.trai.ch/kiln/internal/adapters/plan"
	_ "go.trai.ch/kiln/internal/adapters/script"
	_ "go.trai.ch/kiln/internal/adapters/shell"
	_ "go.trai.ch/kiln/internal/adapters/status"
	_ "go.trai.ch/kiln/internal/adapters/telemetry"
	_ "go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/kiln/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/kiln/internal/app"
	_ "go.trai.ch/kiln/internal/engine/baker"
	_ "go.trai.ch/kiln/internal/engine/scheduler"
)
