package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that a set of products is planned for building.
	EmitPlan(ctx context.Context, products []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Product is the product the span belongs to, if any.
	Product string
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithProduct tags a span with the product it works on.
func WithProduct(name string) SpanOption {
	return func(c *SpanConfig) { c.Product = name }
}

// Progress reports per-product build progress to the user.
type Progress interface {
	// Vertex opens the progress entry of one product build.
	Vertex(name string) Vertex
}

// Vertex is the progress entry of one product build.
type Vertex interface {
	// Stdout receives tool output.
	Stdout() io.Writer
	// Stderr receives tool diagnostics.
	Stderr() io.Writer
	// Log records a message against the build.
	Log(level domain.LogLevel, msg string)
	// Cached marks the build as served from a build record.
	Cached()
	// Done completes the entry. A nil error means success.
	Done(err error)
}
