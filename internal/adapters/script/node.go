package script

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the script engine Graft node.
const NodeID graft.ID = "adapter.script"

func init() {
	graft.Register(graft.Node[ports.ScriptEngine]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ScriptEngine, error) {
			return NewEngine(), nil
		},
	})
}
