// Package scheduler cooks recipes: it hands every ingredient to a chef as soon as all of
// its prerequisites were cooked successfully.
package scheduler

import (
	"context"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Cooker dispatches the ingredients of recipes.
type Cooker struct{}

// NewCooker creates a Cooker.
func NewCooker() *Cooker {
	return &Cooker{}
}

// Cook starts cooking the recipe and returns immediately.
//
// chef.Cook is called once for every ingredient whose prerequisites all succeeded, and
// chef.Done exactly once after every started ingredient reported back. Ingredients that
// can only be reached through a failed one are never started; chefs implementing
// ports.SkipObserver hear about them before Done. Cancelling ctx stops new dispatches and
// fails the run once the started ingredients have reported back.
func (c *Cooker) Cook(ctx context.Context, recipe *domain.Recipe, chef ports.Chef) {
	r := newCookRun(ctx, recipe, chef)
	go r.dispatch()
}

type completion struct {
	ingredient *domain.Ingredient
	ok         bool
}

// cookRun is the state of one Cook call. Everything but results is owned by dispatch.
type cookRun struct {
	ctx     context.Context
	recipe  *domain.Recipe
	chef    ports.Chef
	results chan completion

	remaining   map[*domain.Ingredient]int
	started     map[*domain.Ingredient]struct{}
	outstanding int
	failed      bool
}

func newCookRun(ctx context.Context, recipe *domain.Recipe, chef ports.Chef) *cookRun {
	total := recipe.Len()
	return &cookRun{
		ctx:       ctx,
		recipe:    recipe,
		chef:      chef,
		results:   make(chan completion, total),
		remaining: make(map[*domain.Ingredient]int, total),
		started:   make(map[*domain.Ingredient]struct{}, total),
	}
}

func (r *cookRun) dispatch() {
	ready := append([]*domain.Ingredient(nil), r.recipe.Starts...)
	for {
		if len(ready) > 0 {
			if r.ctx.Err() != nil {
				r.failed = true
			} else {
				for _, ing := range ready {
					r.start(ing)
				}
			}
			ready = ready[:0]
		}
		if r.outstanding == 0 {
			break
		}

		res := <-r.results
		r.outstanding--
		if !res.ok {
			r.failed = true
			continue
		}
		for _, post := range res.ingredient.Postrequisites {
			n, ok := r.remaining[post]
			if !ok {
				n = len(post.Prerequisites)
			}
			n--
			r.remaining[post] = n
			if n == 0 {
				ready = append(ready, post)
			}
		}
	}

	if observer, ok := r.chef.(ports.SkipObserver); ok {
		for _, ing := range r.recipe.Ingredients() {
			if _, started := r.started[ing]; !started {
				observer.Skipped(ing)
			}
		}
	}
	r.chef.Done(!r.failed)
}

func (r *cookRun) start(ing *domain.Ingredient) {
	r.outstanding++
	r.started[ing] = struct{}{}

	var once sync.Once
	r.chef.Cook(r.ctx, ing, func(ok bool) {
		once.Do(func() {
			r.results <- completion{ingredient: ing, ok: ok}
		})
	})
}
