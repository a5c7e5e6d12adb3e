package app

import (
	"context"
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	// Parallelism overrides the configured number of concurrent product builds.
	Parallelism int
	// Addr overrides the configured status server address.
	Addr string
}

// Watch builds the goals and rebuilds them whenever the client tree changes,
// until ctx is cancelled. Build failures are logged and do not end the watch.
func (a *App) Watch(ctx context.Context, goals []string, opts WatchOptions) error {
	s, err := a.open(ctx, opts.Parallelism)
	if err != nil {
		return err
	}
	defer a.closeSession(s)

	g, ctx := errgroup.WithContext(ctx)

	w, err := a.openWatcher(s.cfg)
	if err != nil {
		return err
	}
	if err := w.Start(ctx, s.cfg.Root); err != nil {
		_ = w.Stop()
		return zerr.Wrap(errors.Join(domain.ErrWatcherFailed, err), "failed to watch client tree")
	}
	defer func() { _ = w.Stop() }()

	addr := opts.Addr
	if addr == "" {
		addr = s.cfg.StatusAddr
	}
	if addr != "" {
		srv := a.newStatus(s)
		g.Go(func() error {
			return srv.Serve(ctx, addr)
		})
		a.logger.Info("status server listening on " + addr)
	}

	g.Go(func() error {
		if err := s.loadPlans(ctx); err != nil {
			a.logger.Error(err)
		}
		a.rebuild(ctx, s, goals)

		limiter := rate.NewLimiter(rate.Every(s.cfg.RebuildInterval), 1)
		for batch := range w.Events() {
			changes, err := s.files.Update(ctx, batch)
			if err != nil {
				a.logger.Error(err)
				continue
			}
			plansChanged, err := s.syncPlans(ctx)
			if err != nil {
				a.logger.Error(err)
			}
			if len(changes) == 0 && !plansChanged {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				break
			}
			a.rebuild(ctx, s, goals)
		}
		return nil
	})

	a.logger.Info("watching " + s.cfg.Root)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) rebuild(ctx context.Context, s *session, goals []string) {
	if err := a.build(ctx, s, goals); err != nil && ctx.Err() == nil {
		a.logger.Error(err)
	}
}
