package filestore

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the file store opener Graft node.
const NodeID graft.ID = "adapter.filestore"

func init() {
	graft.Register(graft.Node[ports.FileStoreOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.FileStoreOpener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return func(_ context.Context, cfg *domain.Config) (ports.FileStore, error) {
				return Open(cfg.Root, cfg.Ignore, log)
			}, nil
		},
	})
}
