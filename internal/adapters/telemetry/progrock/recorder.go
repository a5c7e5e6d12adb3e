// Package progrock reports build progress through a progrock tape.
package progrock

import (
	"strconv"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

// Recorder implements ports.Progress using the vito/progrock library. Every product
// build gets its own vertex; repeated builds of a product get distinct vertices.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu    sync.Mutex
	count map[string]int
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:     w,
		rec:   progrock.NewRecorder(w),
		count: make(map[string]int),
	}
}

// Vertex starts recording a new vertex for a build of the named product.
func (r *Recorder) Vertex(name string) ports.Vertex {
	r.mu.Lock()
	r.count[name]++
	attempt := r.count[name]
	r.mu.Unlock()

	d := digest.FromString(name + "\x00" + strconv.Itoa(attempt))
	return &Vertex{vertex: r.rec.Vertex(d, name)}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
