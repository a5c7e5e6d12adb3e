package baker

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Result is how one product build ended.
type Result struct {
	Product     string
	Outcome     domain.BuildOutcome
	Fingerprint domain.Hash
	Err         error
}

// OK reports whether the product's outputs are up to date.
func (r Result) OK() bool {
	return r.Err == nil && r.Outcome.Succeeded()
}

// Handle is the future of one product build. Every caller asking for a product while
// its build is outstanding gets the same Handle.
type Handle struct {
	product string
	done    chan struct{}
	result  Result
	cancel  context.CancelFunc
}

func newHandle(product string, cancel context.CancelFunc) *Handle {
	return &Handle{
		product: product,
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// Product returns the name of the product being built.
func (h *Handle) Product() string {
	return h.product
}

// Done is closed once the build finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the build finished or ctx is done. It returns the result and the
// build error, or ctx's error if ctx ended first.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.result, h.result.Err
	case <-ctx.Done():
		return Result{Product: h.product}, ctx.Err()
	}
}

// Result returns the result without blocking. The boolean is false while the build is
// still running.
func (h *Handle) Result() (Result, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return Result{}, false
	}
}

// Cancel aborts the build if it is still running.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) complete(r Result) {
	h.result = r
	close(h.done)
	h.cancel()
}
