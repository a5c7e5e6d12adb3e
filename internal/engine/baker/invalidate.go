package baker

import (
	"path"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// ProductChanged installs a new definition. Any outstanding build of the old one is
// cancelled and the next Build starts from scratch.
func (b *Baker) ProductChanged(product *domain.Product) {
	b.mu.Lock()
	st, ok := b.statuses[product.Name]
	if !ok {
		st = &productStatus{}
		b.statuses[product.Name] = st
	}
	b.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.product = product
	st.reset()
}

// ProductDestroyed forgets a product and cancels its outstanding build.
func (b *Baker) ProductDestroyed(name string) {
	b.mu.Lock()
	st, ok := b.statuses[name]
	delete(b.statuses, name)
	b.mu.Unlock()

	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.reset()
}

// ToolChanged invalidates every product whose actions run the tool.
func (b *Baker) ToolChanged(tool string) {
	for _, st := range b.snapshot() {
		st.mu.Lock()
		if st.product != nil && st.product.UsesTool(tool) {
			st.reset()
		}
		st.mu.Unlock()
	}
}

// FilesChanged invalidates products whose inputs match a changed path. Paths a product
// writes itself are ignored for that product. Changes to tool scripts are forwarded to
// ToolChanged.
func (b *Baker) FilesChanged(changes []domain.FileChange) {
	var paths []string
	for _, c := range changes {
		if tool, ok := b.toolOf(c.Path); ok {
			b.ToolChanged(tool)
			continue
		}
		paths = append(paths, c.Path)
	}
	if len(paths) == 0 {
		return
	}

	for _, st := range b.snapshot() {
		st.mu.Lock()
		if st.product != nil && affects(st.product, paths) {
			st.reset()
		}
		st.mu.Unlock()
	}
}

func (b *Baker) toolOf(p string) (string, bool) {
	dir, file := path.Split(p)
	if strings.TrimSuffix(dir, "/") != path.Clean(b.cfg.ToolsDir) || !strings.HasSuffix(file, domain.ToolExt) {
		return "", false
	}
	tool := strings.TrimSuffix(file, domain.ToolExt)
	return tool, tool != ""
}

func (b *Baker) snapshot() []*productStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*productStatus, 0, len(b.statuses))
	for _, st := range b.statuses {
		out = append(out, st)
	}
	return out
}

func affects(product *domain.Product, paths []string) bool {
	for _, p := range paths {
		if product.Inputs.Match(p) && !product.Outputs.Match(p) {
			return true
		}
	}
	return false
}
