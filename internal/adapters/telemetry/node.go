package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// SpanLogNodeID is the unique identifier for the span log Graft node.
	SpanLogNodeID graft.ID = "adapter.telemetry.spanlog"
	// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
	TracerNodeID graft.ID = "adapter.telemetry"
)

func init() {
	graft.Register(graft.Node[*SpanLog]{
		ID:        SpanLogNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*SpanLog, error) {
			return NewSpanLog(DefaultSpanLogSize), nil
		},
	})

	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{SpanLogNodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			spans, err := graft.Dep[*SpanLog](ctx)
			if err != nil {
				return nil, err
			}
			otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
			return NewOTelTracer("kiln"), nil
		},
	})
}
