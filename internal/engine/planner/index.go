// Package planner turns product definitions into dependency graphs.
package planner

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Index infers prerequisite edges from the overlap of product glob shapes.
//
// RecordProduct and RemoveProduct may be called from any goroutine. Snapshot applies
// the batch of changes accumulated since the previous snapshot; overlap results are
// cached per pair of distinct shapes, so the work done per snapshot grows with the
// number of distinct shapes rather than the number of products.
type Index struct {
	metrics ports.Metrics

	mu      sync.Mutex
	pending map[string]*domain.EndPoints

	// Owned by Snapshot.
	snapMu  sync.Mutex
	nodes   map[string]domain.EndPoints
	shapes  map[domain.EndPointsKey]*shape
	overlap map[pairKey]bool
}

type shape struct {
	endPoints domain.EndPoints
	refs      int
}

// pairKey asks whether the sources of src overlap the targets of tgt.
type pairKey struct {
	src, tgt domain.EndPointsKey
}

// NewIndex creates an empty Index.
func NewIndex(metrics ports.Metrics) *Index {
	return &Index{
		metrics: metrics,
		pending: make(map[string]*domain.EndPoints),
		nodes:   make(map[string]domain.EndPoints),
		shapes:  make(map[domain.EndPointsKey]*shape),
		overlap: make(map[pairKey]bool),
	}
}

// RecordProduct adds or replaces the shape of a product.
func (x *Index) RecordProduct(name string, ep domain.EndPoints) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.pending[name] = &ep
}

// RemoveProduct forgets a product. Removing an unknown product is a no-op.
func (x *Index) RemoveProduct(name string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.pending[name] = nil
}

// ProductChanged implements ports.ProductListener.
func (x *Index) ProductChanged(p *domain.Product) {
	x.RecordProduct(p.Name, p.EndPoints())
}

// ProductDestroyed implements ports.ProductListener.
func (x *Index) ProductDestroyed(name string) {
	x.RemoveProduct(name)
}

// Snapshot applies pending changes and returns the current dependency graph.
func (x *Index) Snapshot() *domain.DependencyGraph {
	x.snapMu.Lock()
	defer x.snapMu.Unlock()

	x.mu.Lock()
	batch := x.pending
	x.pending = make(map[string]*domain.EndPoints)
	x.mu.Unlock()

	x.apply(batch)

	byShape := make(map[domain.EndPointsKey][]string, len(x.shapes))
	names := make([]string, 0, len(x.nodes))
	for name, ep := range x.nodes {
		key := ep.Key()
		byShape[key] = append(byShape[key], name)
		names = append(names, name)
	}

	prereqs := make(map[string][]string)
	for consumerKey, consumer := range x.shapes {
		for producerKey, producer := range x.shapes {
			if !x.overlaps(consumerKey, consumer, producerKey, producer) {
				continue
			}
			for _, p := range byShape[consumerKey] {
				for _, q := range byShape[producerKey] {
					if p != q {
						prereqs[p] = append(prereqs[p], q)
					}
				}
			}
		}
	}

	g := domain.NewDependencyGraph(names, prereqs)
	x.metrics.GraphSnapshot(g.Len(), g.EdgeCount())
	return g
}

func (x *Index) apply(batch map[string]*domain.EndPoints) {
	touched := make(map[domain.EndPointsKey]struct{})
	for name, ep := range batch {
		if old, ok := x.nodes[name]; ok {
			key := old.Key()
			x.shapes[key].refs--
			touched[key] = struct{}{}
			delete(x.nodes, name)
		}
		if ep == nil {
			continue
		}
		key := ep.Key()
		s, ok := x.shapes[key]
		if !ok {
			s = &shape{endPoints: *ep}
			x.shapes[key] = s
		}
		s.refs++
		x.nodes[name] = *ep
	}

	defunct := make(map[domain.EndPointsKey]struct{})
	for key := range touched {
		if s := x.shapes[key]; s != nil && s.refs == 0 {
			delete(x.shapes, key)
			defunct[key] = struct{}{}
		}
	}
	if len(defunct) == 0 {
		return
	}
	for pair := range x.overlap {
		_, srcGone := defunct[pair.src]
		_, tgtGone := defunct[pair.tgt]
		if srcGone || tgtGone {
			delete(x.overlap, pair)
		}
	}
}

func (x *Index) overlaps(ck domain.EndPointsKey, c *shape, pk domain.EndPointsKey, p *shape) bool {
	key := pairKey{src: ck, tgt: pk}
	if v, ok := x.overlap[key]; ok {
		x.metrics.OverlapLookup(true)
		return v
	}
	x.metrics.OverlapLookup(false)
	v := c.endPoints.Sources.Overlaps(p.endPoints.Targets)
	x.overlap[key] = v
	return v
}
