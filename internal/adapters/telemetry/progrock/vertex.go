package progrock

import (
	"fmt"
	"io"

	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/domain"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
}

// Stdout returns the writer receiving tool output.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Stderr returns the writer receiving tool diagnostics.
func (v *Vertex) Stderr() io.Writer {
	return v.vertex.Stderr()
}

// Log records a message against the build.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "[%s] %s\n", level.String(), msg)
}

// Cached marks the vertex as served from a build record.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}

// Done marks the vertex as finished, successfully or with an error.
func (v *Vertex) Done(err error) {
	v.vertex.Done(err)
}
