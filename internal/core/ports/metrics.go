package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Metrics records build and planning measurements.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// BuildFinished records the outcome and duration of a product request.
	BuildFinished(product string, outcome domain.BuildOutcome, elapsed time.Duration)
	// OverlapLookup records whether an overlap query was answered from the cache.
	OverlapLookup(hit bool)
	// GraphSnapshot records the size of a freshly built dependency graph.
	GraphSnapshot(products, edges int)
}
