package app

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.trai.ch/kiln/internal/engine/planner"
	"go.trai.ch/zerr"
)

// session is one client tree opened for building: its stores, the product
// registry, the overlap index and the baker, with the listeners between them.
type session struct {
	cfg      *domain.Config
	files    ports.FileStore
	registry *planner.Registry
	index    *planner.Index
	baker    *baker.Baker
	plans    ports.PlanLoader
	logger   ports.Logger

	mu           sync.Mutex
	changedPlans map[string]domain.FileChangeKind
}

func (a *App) open(ctx context.Context, parallelism int) (*session, error) {
	cfg, err := a.configLoader.Load(a.cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if parallelism > 0 {
		cfg.Parallelism = parallelism
	}

	files, err := a.openFiles(ctx, cfg)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open file store")
	}
	records, err := a.openRecords(cfg.Root)
	if err != nil {
		_ = files.Close()
		return nil, zerr.Wrap(err, "failed to open build records")
	}
	b, err := baker.New(cfg, files, records, a.bakerDeps)
	if err != nil {
		_ = files.Close()
		return nil, zerr.Wrap(err, "failed to create baker")
	}

	s := &session{
		cfg:          cfg,
		files:        files,
		registry:     planner.NewRegistry(a.logger),
		index:        planner.NewIndex(a.metrics),
		baker:        b,
		plans:        a.plans,
		logger:       a.logger,
		changedPlans: make(map[string]domain.FileChangeKind),
	}
	s.registry.AddListener(s.index)
	s.registry.AddListener(b)
	files.AddListener(b)
	files.AddListener(s)

	if err := files.Scan(ctx); err != nil {
		a.closeSession(s)
		return nil, zerr.Wrap(err, "failed to scan client tree")
	}
	return s, nil
}

func (a *App) closeSession(s *session) {
	if err := s.baker.Close(); err != nil {
		a.logger.Error(err)
	}
	if err := s.files.Close(); err != nil {
		a.logger.Error(err)
	}
}

// FilesChanged queues changed plan files for the next syncPlans.
func (s *session) FilesChanged(changes []domain.FileChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		if s.cfg.Plans.Match(c.Path) {
			s.changedPlans[c.Path] = c.Kind
		}
	}
}

// loadPlans evaluates every plan file in the client tree.
func (s *session) loadPlans(ctx context.Context) error {
	paths, err := s.files.Matching(ctx, s.cfg.Plans)
	if err != nil {
		return zerr.Wrap(err, "failed to find plan files")
	}

	s.mu.Lock()
	clear(s.changedPlans)
	s.mu.Unlock()

	var errs error
	for _, path := range paths {
		errs = errors.Join(errs, s.loadPlan(ctx, path))
	}
	return errs
}

// syncPlans re-evaluates the plan files changed since the last call. It reports
// whether any plan file changed.
func (s *session) syncPlans(ctx context.Context) (bool, error) {
	s.mu.Lock()
	changed := s.changedPlans
	s.changedPlans = make(map[string]domain.FileChangeKind)
	s.mu.Unlock()

	var errs error
	for _, path := range slices.Sorted(maps.Keys(changed)) {
		if changed[path] == domain.FileRemoved {
			s.registry.RemovePlan(path)
			continue
		}
		errs = errors.Join(errs, s.loadPlan(ctx, path))
	}
	return len(changed) > 0, errs
}

// loadPlan evaluates one plan file. A plan that fails to load defines nothing.
func (s *session) loadPlan(ctx context.Context, path string) error {
	content, err := s.files.Load(ctx, path)
	if errors.Is(err, domain.ErrFileNotFound) {
		s.registry.RemovePlan(path)
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read plan file"), "plan", path)
	}

	products, err := s.plans.Load(ctx, *content)
	if err != nil {
		s.registry.RemovePlan(path)
		return zerr.With(zerr.Wrap(err, "failed to load plan file"), "plan", path)
	}
	s.registry.SetPlan(path, products)
	return nil
}

func (s *session) productMap() map[string]*domain.Product {
	products := s.registry.Products()
	out := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		out[p.Name] = p
	}
	return out
}

// Products implements status.Source.
func (s *session) Products() []*domain.Product {
	return s.registry.Products()
}

// Product implements status.Source.
func (s *session) Product(name string) (*domain.Product, bool) {
	return s.registry.Product(name)
}

// WriteGraph implements status.Source.
func (s *session) WriteGraph(w io.Writer) error {
	return planner.RenderDOT(w, s.index.Snapshot(), s.productMap())
}
