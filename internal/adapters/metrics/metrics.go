// Package metrics implements build metrics on a Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.trai.ch/kiln/internal/core/domain"
)

const namespace = "kiln"

// Recorder implements ports.Metrics.
type Recorder struct {
	registry *prometheus.Registry

	builds        *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	lookups       *prometheus.CounterVec
	products      prometheus.Gauge
	edges         prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		builds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Product build requests by outcome",
		}, []string{"outcome"}),
		buildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time from build request to completion",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"outcome"}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlap_lookups_total",
			Help:      "Glob overlap queries by cache result",
		}, []string{"result"}),
		products: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_products",
			Help:      "Products in the latest dependency graph",
		}),
		edges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the latest dependency graph",
		}),
	}
}

// BuildFinished records the outcome and duration of a product request.
func (r *Recorder) BuildFinished(_ string, outcome domain.BuildOutcome, elapsed time.Duration) {
	r.builds.WithLabelValues(string(outcome)).Inc()
	r.buildDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// OverlapLookup records whether an overlap query was answered from the cache.
func (r *Recorder) OverlapLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(result).Inc()
}

// GraphSnapshot records the size of a freshly built dependency graph.
func (r *Recorder) GraphSnapshot(products, edges int) {
	r.products.Set(float64(products))
	r.edges.Set(float64(edges))
}

// Gatherer exposes the registry for scraping.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
