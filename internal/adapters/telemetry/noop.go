package telemetry

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NoOpTracer is a no-op implementation of ports.Tracer.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start creates a new no-op span.
func (t *NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{}
}

// EmitPlan does nothing.
func (t *NoOpTracer) EmitPlan(_ context.Context, _ []string) {}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct{}

// End does nothing.
func (s *NoOpSpan) End() {}

// RecordError does nothing.
func (s *NoOpSpan) RecordError(_ error) {}

// SetAttribute does nothing.
func (s *NoOpSpan) SetAttribute(_ string, _ any) {}

// Write does nothing and returns the length of p.
func (s *NoOpSpan) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// NoOpProgress is a ports.Progress that discards everything.
type NoOpProgress struct{}

// NewNoOpProgress creates a new NoOpProgress.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Vertex returns a vertex that discards everything.
func (p *NoOpProgress) Vertex(_ string) ports.Vertex {
	return noOpVertex{}
}

type noOpVertex struct{}

func (noOpVertex) Stdout() io.Writer { return io.Discard }

func (noOpVertex) Stderr() io.Writer { return io.Discard }

func (noOpVertex) Log(domain.LogLevel, string) {}

func (noOpVertex) Cached() {}

func (noOpVertex) Done(error) {}
