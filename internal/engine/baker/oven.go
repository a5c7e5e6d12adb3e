package baker

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// loadTools reads the tool scripts of a product and their combined hash. The result is
// cached on the status until the product or one of its tools changes.
func (b *Baker) loadTools(
	ctx context.Context,
	st *productStatus,
	product *domain.Product,
) (map[string]ports.Script, domain.Hash, error) {
	st.mu.Lock()
	if st.toolsValid && st.product == product {
		scripts, hash := st.scripts, st.toolHash
		st.mu.Unlock()
		return scripts, hash, nil
	}
	st.mu.Unlock()

	scripts := make(map[string]ports.Script)
	var hashes domain.HashBuilder
	for _, tool := range product.Tools() {
		path := domain.ToolPath(b.cfg.ToolsDir, tool)
		content, err := b.store.Load(ctx, path)
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, domain.Hash{}, zerr.With(zerr.With(zerr.Wrap(domain.ErrToolNotFound, tool), "tool", tool), "path", path)
		}
		if err != nil {
			return nil, domain.Hash{}, zerr.With(zerr.Wrap(err, "failed to load tool"), "tool", tool)
		}
		scripts[tool] = ports.Script{Tool: tool, Path: path, Source: content.Data, Hash: content.Hash}
		hashes.Add(domain.BindHash(path, content.Hash))
	}
	toolHash := hashes.Sum()

	st.mu.Lock()
	if st.product == product {
		st.scripts, st.toolHash, st.toolsValid = scripts, toolHash, true
	}
	st.mu.Unlock()
	return scripts, toolHash, nil
}

// runActions executes the product's actions in declared order inside the working
// directory. Later actions see what earlier ones wrote.
func (b *Baker) runActions(
	ctx context.Context,
	product *domain.Product,
	workDir string,
	scripts map[string]ports.Script,
	vertex ports.Vertex,
) error {
	for _, prefix := range product.Outputs.Prefixes() {
		if prefix == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Join(workDir, filepath.FromSlash(prefix)), domain.PrivateDirPerm); err != nil {
			return zerr.With(errors.Join(domain.ErrStageFailed, err), "path", prefix)
		}
	}

	exec := &guardedExec{guard: b.guard, dir: workDir, next: b.runner}
	for i, action := range product.Actions {
		if err := ctx.Err(); err != nil {
			return err
		}

		inputs, err := matchTree(workDir, action.Inputs)
		if err != nil {
			return zerr.With(errors.Join(domain.ErrStageFailed, err), "product", product.Name)
		}

		script := scripts[action.Tool]
		vertex.Log(domain.LogLevelDebug, "running "+action.Tool)
		res, err := b.engine.Run(ctx, script, ports.Invocation{
			Product: product,
			Action:  action,
			Dir:     workDir,
			Inputs:  inputs,
			Exec:    exec,
			Stdout:  vertex.Stdout(),
			Stderr:  vertex.Stderr(),
		})
		if err != nil {
			return zerr.With(zerr.With(zerr.With(zerr.Wrap(err, "action failed"), "product", product.Name), "tool", action.Tool), "action", i)
		}

		for _, loaded := range res.Loaded {
			if loaded.Path == script.Path && loaded.Hash != script.Hash {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrVersionSkew, "tool changed while running"), "tool", action.Tool), "product", product.Name)
			}
		}
	}
	return nil
}
