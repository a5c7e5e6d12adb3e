package planner

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry owns the set of defined products. Products are tracked per plan file; a name
// defined by more than one plan file is suppressed until only one definer remains.
type Registry struct {
	logger ports.Logger

	mu        sync.RWMutex
	byPlan    map[string]map[string]*domain.Product
	active    map[string]*domain.Product
	conflicts map[string]struct{}
	listeners []ports.ProductListener
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger ports.Logger) *Registry {
	return &Registry{
		logger:    logger,
		byPlan:    make(map[string]map[string]*domain.Product),
		active:    make(map[string]*domain.Product),
		conflicts: make(map[string]struct{}),
	}
}

// AddListener registers a listener for product changes.
func (r *Registry) AddListener(l ports.ProductListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// SetPlan replaces every product defined by a plan file.
func (r *Registry) SetPlan(plan string, products []*domain.Product) {
	defs := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		defs[p.Name] = p
	}

	r.mu.Lock()
	affected := maps.Clone(defs)
	for name, p := range r.byPlan[plan] {
		affected[name] = p
	}
	if len(defs) == 0 {
		delete(r.byPlan, plan)
	} else {
		r.byPlan[plan] = defs
	}
	events, warnings := r.reconcile(slices.Sorted(maps.Keys(affected)))
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	r.publish(listeners, events, warnings)
}

// RemovePlan forgets every product defined by a plan file.
func (r *Registry) RemovePlan(plan string) {
	r.SetPlan(plan, nil)
}

// Plans returns the plan files that currently define products, sorted.
func (r *Registry) Plans() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byPlan))
}

// Product returns the active definition of a product.
func (r *Registry) Product(name string) (*domain.Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.active[name]
	return p, ok
}

// Products returns the active products sorted by name.
func (r *Registry) Products() []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0, len(r.active))
	for _, name := range slices.Sorted(maps.Keys(r.active)) {
		out = append(out, r.active[name])
	}
	return out
}

// Goals returns the names of the active products that are not intermediate.
func (r *Registry) Goals() []string {
	var goals []string
	for _, p := range r.Products() {
		if !p.Intermediate {
			goals = append(goals, p.Name)
		}
	}
	return goals
}

type productEvent struct {
	name    string
	product *domain.Product
}

func (r *Registry) reconcile(names []string) ([]productEvent, []error) {
	var events []productEvent
	var warnings []error
	for _, name := range names {
		var definers []string
		var candidate *domain.Product
		for plan, defs := range r.byPlan {
			if p, ok := defs[name]; ok {
				definers = append(definers, plan)
				candidate = p
			}
		}

		_, wasConflict := r.conflicts[name]
		if len(definers) > 1 {
			candidate = nil
			r.conflicts[name] = struct{}{}
			if !wasConflict {
				slices.Sort(definers)
				err := zerr.Wrap(domain.ErrNamingConflict, "product "+name+" is defined in "+strings.Join(definers, ", "))
				err = zerr.With(err, "product", name)
				warnings = append(warnings, zerr.With(err, "plans", definers))
			}
		} else {
			delete(r.conflicts, name)
		}

		current, exists := r.active[name]
		switch {
		case candidate == nil && exists:
			delete(r.active, name)
			events = append(events, productEvent{name: name})
		case candidate != nil && !candidate.Equal(current):
			r.active[name] = candidate
			events = append(events, productEvent{name: name, product: candidate})
		}
	}
	return events, warnings
}

func (r *Registry) publish(listeners []ports.ProductListener, events []productEvent, warnings []error) {
	for _, w := range warnings {
		r.logger.Warn(w.Error())
	}
	for _, ev := range events {
		for _, l := range listeners {
			if ev.product == nil {
				l.ProductDestroyed(ev.name)
			} else {
				l.ProductChanged(ev.product)
			}
		}
	}
}
