// Package baker builds single products: it stages inputs into a private working
// directory, runs the product's actions there and reconciles the outputs back into
// the client tree.
package baker

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Deps are the collaborators shared by every Baker.
type Deps struct {
	Engine   ports.ScriptEngine
	Runner   ports.Exec
	Logger   ports.Logger
	Tracer   ports.Tracer
	Progress ports.Progress
	Metrics  ports.Metrics
}

// Baker builds products on request. At most one build per product is in flight.
type Baker struct {
	engine   ports.ScriptEngine
	runner   ports.Exec
	logger   ports.Logger
	tracer   ports.Tracer
	progress ports.Progress
	metrics  ports.Metrics

	cfg      *domain.Config
	store    ports.FileStore
	records  ports.BuildRecordStore
	guard    *Guard
	workRoot string

	// ctx bounds every build; Close cancels it.
	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	statuses map[string]*productStatus

	// tasks tracks running builds and working directory deletions.
	tasks sync.WaitGroup
}

type productStatus struct {
	mu         sync.Mutex
	product    *domain.Product
	scripts    map[string]ports.Script
	toolHash   domain.Hash
	toolsValid bool
	handle     *Handle
}

// reset drops everything derived from the current definition and cancels the
// outstanding build. The caller holds st.mu.
func (st *productStatus) reset() {
	st.scripts = nil
	st.toolHash = domain.Hash{}
	st.toolsValid = false
	if st.handle != nil {
		st.handle.Cancel()
		st.handle = nil
	}
}

// New creates a Baker for the client tree served by store.
func New(cfg *domain.Config, store ports.FileStore, records ports.BuildRecordStore, deps Deps) (*Baker, error) {
	if err := os.MkdirAll(cfg.WorkDir, domain.PrivateDirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create working directory base"), "path", cfg.WorkDir)
	}
	guard, err := NewGuard(store.Root(), cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Baker{
		engine:   deps.Engine,
		runner:   deps.Runner,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
		progress: deps.Progress,
		metrics:  deps.Metrics,
		cfg:      cfg,
		store:    store,
		records:  records,
		guard:    guard,
		workRoot: cfg.WorkDir,
		ctx:      ctx,
		stop:     stop,
		statuses: make(map[string]*productStatus),
	}, nil
}

// Build returns the handle of the product's build, starting one if none is
// outstanding. Unknown products get an already failed handle.
//
// The build keeps the values of ctx but not its cancellation: the handle is shared,
// so a caller gives up through Handle.Wait. Builds end early only on invalidation or
// Close.
func (b *Baker) Build(ctx context.Context, name string) *Handle {
	b.mu.Lock()
	st := b.statuses[name]
	b.mu.Unlock()

	if st == nil {
		h := newHandle(name, func() {})
		h.complete(Result{
			Product: name,
			Outcome: domain.OutcomeFailed,
			Err:     zerr.With(zerr.Wrap(domain.ErrUnknownProduct, name), "product", name),
		})
		return h
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.handle != nil {
		return st.handle
	}

	bctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	release := context.AfterFunc(b.ctx, cancel)
	h := newHandle(name, func() {
		release()
		cancel()
	})
	st.handle = h
	product := st.product
	b.tasks.Go(func() { b.bake(bctx, st, product, h) })
	return h
}

// Close cancels outstanding builds and waits for them and for pending working
// directory deletions.
func (b *Baker) Close() error {
	b.stop()
	b.tasks.Wait()
	return nil
}

func (b *Baker) bake(ctx context.Context, st *productStatus, product *domain.Product, h *Handle) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "bake", ports.WithProduct(product.Name))
	defer span.End()
	vertex := b.progress.Vertex(product.Name)

	res := b.run(ctx, st, product, vertex)
	if res.Err != nil && ctx.Err() != nil {
		res.Outcome = domain.OutcomeCancelled
		if !errors.Is(res.Err, domain.ErrBuildCancelled) {
			res.Err = zerr.With(zerr.Wrap(domain.ErrBuildCancelled, product.Name), "product", product.Name)
		}
	}

	span.SetAttribute("outcome", string(res.Outcome))
	span.RecordError(res.Err)
	if res.Outcome == domain.OutcomeCached {
		vertex.Cached()
	}
	vertex.Done(res.Err)
	b.metrics.BuildFinished(product.Name, res.Outcome, time.Since(start))

	if res.Err != nil {
		st.mu.Lock()
		if st.handle == h {
			st.handle = nil
		}
		st.mu.Unlock()
	}
	h.complete(res)
}

func (b *Baker) run(ctx context.Context, st *productStatus, product *domain.Product, vertex ports.Vertex) Result {
	failed := func(err error) Result {
		return Result{Product: product.Name, Outcome: domain.OutcomeFailed, Err: err}
	}

	scripts, toolHash, err := b.loadTools(ctx, st, product)
	if err != nil {
		return failed(err)
	}
	inputs, err := b.store.Matching(ctx, product.Inputs)
	if err != nil {
		return failed(zerr.With(zerr.Wrap(err, "failed to resolve inputs"), "product", product.Name))
	}

	contents, inputHash, err := b.loadInputs(ctx, inputs)
	if err != nil {
		return failed(zerr.With(err, "product", product.Name))
	}
	fingerprint := domain.CombineHashes(
		domain.BindHash("tools", toolHash),
		domain.BindHash("inputs", inputHash),
		domain.BindHash("definition", product.DefinitionHash()),
	)

	if b.upToDate(ctx, product, fingerprint) {
		vertex.Log(domain.LogLevelInfo, "outputs match build record "+fingerprint.Short())
		return Result{Product: product.Name, Outcome: domain.OutcomeCached, Fingerprint: fingerprint}
	}

	workDir, err := b.createWorkDir(product.Name)
	if err != nil {
		return failed(err)
	}
	defer b.disposeWorkDir(workDir)

	if err := b.stage(ctx, workDir, contents); err != nil {
		return failed(zerr.With(err, "product", product.Name))
	}

	if err := b.runActions(ctx, product, workDir, scripts, vertex); err != nil {
		return failed(err)
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	r, err := b.finish(ctx, product, workDir, vertex)
	if err != nil {
		return failed(err)
	}
	if _, err := b.store.Update(ctx, r.changed()); err != nil {
		return failed(zerr.With(zerr.Wrap(err, "failed to record outputs"), "product", product.Name))
	}

	record := domain.BuildRecord{
		Product:     product.Name,
		Fingerprint: fingerprint,
		Outputs:     make(map[string]domain.Hash, len(r.outputs)),
		BuiltAt:     time.Now(),
	}
	for _, path := range r.outputs {
		content, err := b.store.Load(ctx, path)
		if err != nil {
			return failed(zerr.With(zerr.Wrap(err, "failed to hash output"), "path", path))
		}
		record.Outputs[path] = content.Hash
	}

	if !b.current(st, product) {
		return failed(zerr.With(zerr.Wrap(domain.ErrVersionSkew, product.Name), "product", product.Name))
	}
	if err := b.records.Put(record); err != nil {
		b.logger.Warn(zerr.Wrap(err, "failed to store build record of "+product.Name).Error())
	}
	vertex.Log(domain.LogLevelInfo, "product up to date")
	return Result{Product: product.Name, Outcome: domain.OutcomeBuilt, Fingerprint: fingerprint}
}

// current reports whether product is still the live definition behind st.
func (b *Baker) current(st *productStatus, product *domain.Product) bool {
	b.mu.Lock()
	live := b.statuses[product.Name] == st
	b.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	return live && st.product == product
}

// upToDate reports whether the build record of the product matches fingerprint and
// the recorded outputs are still intact in the client tree.
func (b *Baker) upToDate(ctx context.Context, product *domain.Product, fingerprint domain.Hash) bool {
	record, err := b.records.Get(product.Name)
	if err != nil {
		b.logger.Warn(zerr.Wrap(err, "ignoring build record of "+product.Name).Error())
		return false
	}
	if record == nil || record.Fingerprint != fingerprint {
		return false
	}

	present, err := b.store.Matching(ctx, product.Outputs)
	if err != nil || len(present) != len(record.Outputs) {
		return false
	}
	for _, path := range present {
		want, ok := record.Outputs[path]
		if !ok {
			return false
		}
		content, err := b.store.Load(ctx, path)
		if err != nil || content.Hash != want {
			return false
		}
	}
	return true
}
