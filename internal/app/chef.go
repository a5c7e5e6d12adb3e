package app

import (
	"context"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

var (
	_ ports.Chef         = (*chef)(nil)
	_ ports.SkipObserver = (*chef)(nil)
)

// chef builds ingredients through the baker, at most parallelism at a time.
type chef struct {
	baker  *baker.Baker
	sem    *semaphore.Weighted
	logger ports.Logger

	mu      sync.Mutex
	failed  []string
	skipped []string
	done    chan bool
}

func newChef(b *baker.Baker, parallelism int, logger ports.Logger) *chef {
	return &chef{
		baker:  b,
		sem:    semaphore.NewWeighted(int64(max(parallelism, 1))),
		logger: logger,
		done:   make(chan bool, 1),
	}
}

// Cook implements ports.Chef.
func (c *chef) Cook(ctx context.Context, ingredient *domain.Ingredient, whenDone func(ok bool)) {
	go func() {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			c.fail(ingredient.Product, zerr.With(zerr.Wrap(domain.ErrBuildCancelled, ingredient.Product), "product", ingredient.Product))
			whenDone(false)
			return
		}
		defer c.sem.Release(1)

		res, err := c.baker.Build(ctx, ingredient.Product).Wait(ctx)
		if err != nil || !res.OK() {
			if err == nil {
				err = zerr.With(zerr.Wrap(domain.ErrBuildFailed, ingredient.Product), "product", ingredient.Product)
			}
			c.fail(ingredient.Product, err)
			whenDone(false)
			return
		}
		whenDone(true)
	}()
}

// Skipped implements ports.SkipObserver.
func (c *chef) Skipped(ingredient *domain.Ingredient) {
	c.mu.Lock()
	c.skipped = append(c.skipped, ingredient.Product)
	c.mu.Unlock()
	c.logger.Warn("skipped " + ingredient.Product + ": a prerequisite failed")
}

// Done implements ports.Chef.
func (c *chef) Done(allSucceeded bool) {
	c.done <- allSucceeded
}

func (c *chef) fail(product string, err error) {
	c.mu.Lock()
	c.failed = append(c.failed, product)
	c.mu.Unlock()
	c.logger.Error(err)
}

// wait blocks until the recipe is cooked and summarizes the outcome.
func (c *chef) wait() error {
	if <-c.done {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := zerr.Wrap(domain.ErrBuildFailed, "one or more products failed")
	if len(c.failed) > 0 {
		err = zerr.With(err, "failed", append([]string(nil), c.failed...))
	}
	if len(c.skipped) > 0 {
		err = zerr.With(err, "skipped", append([]string(nil), c.skipped...))
	}
	return err
}
