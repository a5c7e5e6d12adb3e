// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/status"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.trai.ch/kiln/internal/engine/planner"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Deps are the collaborators of an App.
type Deps struct {
	ConfigLoader ports.ConfigLoader
	OpenFiles    ports.FileStoreOpener
	OpenRecords  ports.BuildRecordStoreOpener
	OpenWatcher  ports.WatcherOpener
	Plans        ports.PlanLoader
	Baker        baker.Deps
	Cooker       *scheduler.Cooker
	Status       status.Factory
	Metrics      ports.Metrics
	Tracer       ports.Tracer
	Logger       ports.Logger
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	openFiles    ports.FileStoreOpener
	openRecords  ports.BuildRecordStoreOpener
	openWatcher  ports.WatcherOpener
	plans        ports.PlanLoader
	bakerDeps    baker.Deps
	cooker       *scheduler.Cooker
	newStatus    status.Factory
	metrics      ports.Metrics
	tracer       ports.Tracer
	logger       ports.Logger
	cwd          string
}

// New creates a new App instance.
func New(deps Deps) *App {
	return &App{
		configLoader: deps.ConfigLoader,
		openFiles:    deps.OpenFiles,
		openRecords:  deps.OpenRecords,
		openWatcher:  deps.OpenWatcher,
		plans:        deps.Plans,
		bakerDeps:    deps.Baker,
		cooker:       deps.Cooker,
		newStatus:    deps.Status,
		metrics:      deps.Metrics,
		tracer:       deps.Tracer,
		logger:       deps.Logger,
		cwd:          ".",
	}
}

// WithWorkingDir makes the App discover kiln.yaml from dir instead of the
// process working directory.
func (a *App) WithWorkingDir(dir string) *App {
	a.cwd = dir
	return a
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// Parallelism overrides the configured number of concurrent product builds.
	Parallelism int
}

// Build builds the goals, or every non-intermediate product when goals is empty.
func (a *App) Build(ctx context.Context, goals []string, opts BuildOptions) error {
	s, err := a.open(ctx, opts.Parallelism)
	if err != nil {
		return err
	}
	defer a.closeSession(s)

	if err := s.loadPlans(ctx); err != nil {
		return err
	}
	return a.build(ctx, s, goals)
}

// Graph writes the DOT dependency graph, restricted to the goals and everything
// they depend on when goals are given.
func (a *App) Graph(ctx context.Context, goals []string, w io.Writer) error {
	s, err := a.open(ctx, 0)
	if err != nil {
		return err
	}
	defer a.closeSession(s)

	if err := s.loadPlans(ctx); err != nil {
		return err
	}

	g := s.index.Snapshot()
	if len(goals) > 0 {
		if g, err = g.Subgraph(goals); err != nil {
			return err
		}
	}
	return planner.RenderDOT(w, g, s.productMap())
}

// Products returns the defined products sorted by name.
func (a *App) Products(ctx context.Context) ([]*domain.Product, error) {
	s, err := a.open(ctx, 0)
	if err != nil {
		return nil, err
	}
	defer a.closeSession(s)

	if err := s.loadPlans(ctx); err != nil {
		return nil, err
	}
	return s.registry.Products(), nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// All also drops build records and the file index.
	All bool
}

// Clean removes working directories and archived outputs.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	cfg, err := a.configLoader.Load(a.cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	var errs error
	remove := func(path string, name string) {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return
		}
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(cfg.WorkDir, "working directories")
	remove(filepath.Join(cfg.Root, domain.DefaultArchivePath()), "archive")
	if options.All {
		remove(filepath.Join(cfg.Root, domain.DefaultRecordsPath()), "build records")
		remove(filepath.Join(cfg.Root, domain.DefaultIndexPath()), "file index")
	}
	return errs
}

// build plans and cooks the goals in an open session.
func (a *App) build(ctx context.Context, s *session, goals []string) error {
	if len(goals) == 0 {
		goals = s.registry.Goals()
	}
	if len(goals) == 0 {
		a.logger.Info("nothing to build")
		return nil
	}

	recipe, err := s.index.Snapshot().MakeRecipe(goals)
	if err != nil {
		return zerr.Wrap(err, "failed to plan build")
	}
	a.tracer.EmitPlan(ctx, recipe.Products())

	c := newChef(s.baker, s.cfg.Parallelism, a.logger)
	a.cooker.Cook(ctx, recipe, c)
	return c.wait()
}
