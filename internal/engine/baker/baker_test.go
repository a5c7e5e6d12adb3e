package baker_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/script"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	root    string
	work    string
	store   *diskStore
	records *memRecords
	logs    *recordingLogger
	engine  *mocks.MockScriptEngine
	runner  *mocks.MockExec
	metrics *mocks.MockMetrics
	cfg     *domain.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	base := t.TempDir()
	f := &fixture{
		root:    filepath.Join(base, "clientroot"),
		work:    filepath.Join(base, "work"),
		records: newMemRecords(),
		logs:    &recordingLogger{},
		engine:  mocks.NewMockScriptEngine(ctrl),
		runner:  mocks.NewMockExec(ctrl),
		metrics: mocks.NewMockMetrics(ctrl),
	}
	f.store = &diskStore{root: f.root}
	f.cfg = &domain.Config{Root: f.root, ToolsDir: "tools", WorkDir: f.work}
	f.metrics.EXPECT().BuildFinished(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	f.write(t, "tools/gen.sh", "echo generating\n")
	f.write(t, "src/a.txt", "alpha")
	return f
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	full := filepath.Join(f.root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), domain.DirPerm))
	require.NoError(t, os.WriteFile(full, []byte(content), domain.FilePerm))
}

func (f *fixture) newBaker(t *testing.T, products ...*domain.Product) *baker.Baker {
	t.Helper()
	b, err := baker.New(f.cfg, f.store, f.records, baker.Deps{
		Engine:   f.engine,
		Runner:   f.runner,
		Logger:   f.logs,
		Tracer:   telemetry.NewNoOpTracer(),
		Progress: telemetry.NewNoOpProgress(),
		Metrics:  f.metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	for _, p := range products {
		b.ProductChanged(p)
	}
	return b
}

func reportProduct() *domain.Product {
	return domain.NewProduct("report", []domain.Action{{
		Tool:    "gen",
		Inputs:  domain.MustParseGlobSet("src/*.txt"),
		Outputs: domain.MustParseGlobSet("out/*.txt"),
	}})
}

// writeResult is a script run that writes out/result.txt from the staged inputs.
func writeResult(_ context.Context, script ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
	var data []byte
	for _, in := range inv.Inputs {
		b, err := os.ReadFile(filepath.Join(inv.Dir, filepath.FromSlash(in)))
		if err != nil {
			return nil, err
		}
		data = append(data, b...)
	}
	if err := os.WriteFile(filepath.Join(inv.Dir, "out", "result.txt"), data, domain.FilePerm); err != nil {
		return nil, err
	}
	return &ports.ScriptResult{Loaded: []domain.LoadedFile{{Path: script.Path, Hash: script.Hash}}}, nil
}

func wait(t *testing.T, h *baker.Handle) baker.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := h.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return res
}

func TestBaker_BuildReconcilesAndArchives(t *testing.T) {
	f := newFixture(t)
	f.write(t, "out/old.txt", "stale")
	b := f.newBaker(t, reportProduct())

	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, script ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
			assert.Equal(t, "tools/gen.sh", script.Path)
			assert.Equal(t, "echo generating\n", string(script.Source))
			assert.Equal(t, []string{"src/a.txt"}, inv.Inputs)
			assert.Equal(t, "report", inv.Product.Name)
			return writeResult(ctx, script, inv)
		})

	res := wait(t, b.Build(context.Background(), "report"))
	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
	assert.True(t, res.OK())
	assert.False(t, res.Fingerprint.IsZero())

	data, err := os.ReadFile(filepath.Join(f.root, "out", "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	assert.NoFileExists(t, filepath.Join(f.root, "out", "old.txt"))
	archived, err := os.ReadFile(filepath.Join(f.root, ".kiln", "archive", "out", "old.txt"))
	require.NoError(t, err)
	assert.Equal(t, "stale", string(archived))
	assert.True(t, f.logs.Contains("1 obsolete file(s) can be found under .kiln/archive"))

	assert.ElementsMatch(t, []string{"out/result.txt", "out/old.txt"}, f.store.Updates()[0])

	record, err := f.records.Get("report")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, res.Fingerprint, record.Fingerprint)
	assert.Equal(t, map[string]domain.Hash{"out/result.txt": domain.HashString("alpha")}, record.Outputs)

	require.NoError(t, b.Close())
	entries, err := os.ReadDir(f.work)
	require.NoError(t, err)
	assert.Empty(t, entries, "working directories are deleted")
}

func TestBaker_ConcurrentBuildsShareHandle(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	started := make(chan struct{})
	release := make(chan struct{})
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, script ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
			close(started)
			<-release
			return writeResult(ctx, script, inv)
		})

	h1 := b.Build(context.Background(), "report")
	<-started
	h2 := b.Build(context.Background(), "report")
	assert.Same(t, h1, h2)

	_, done := h1.Result()
	assert.False(t, done)

	close(release)
	res := wait(t, h1)
	require.NoError(t, res.Err)

	assert.Same(t, h1, b.Build(context.Background(), "report"), "successful builds are memoized")
}

func TestBaker_ProductChangedCancelsBuild(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	started := make(chan struct{})
	gomock.InOrder(
		f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ ports.Script, _ ports.Invocation) (*ports.ScriptResult, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult),
	)

	h1 := b.Build(context.Background(), "report")
	<-started

	redefined := domain.NewProduct("report", reportProduct().Actions, domain.WithDoc("now documented"))
	b.ProductChanged(redefined)

	res := wait(t, h1)
	assert.ErrorIs(t, res.Err, domain.ErrBuildCancelled)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)

	h2 := b.Build(context.Background(), "report")
	assert.NotSame(t, h1, h2)
	res = wait(t, h2)
	require.NoError(t, res.Err)
}

func TestBaker_CachedFromRecord(t *testing.T) {
	f := newFixture(t)
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult).Times(1)

	first := wait(t, f.newBaker(t, reportProduct()).Build(context.Background(), "report"))
	require.NoError(t, first.Err)

	second := wait(t, f.newBaker(t, reportProduct()).Build(context.Background(), "report"))
	require.NoError(t, second.Err)
	assert.Equal(t, domain.OutcomeCached, second.Outcome)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestBaker_RebuildsWhenOutputTampered(t *testing.T) {
	f := newFixture(t)
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult).Times(2)

	first := wait(t, f.newBaker(t, reportProduct()).Build(context.Background(), "report"))
	require.NoError(t, first.Err)

	f.write(t, "out/result.txt", "edited by hand")

	second := wait(t, f.newBaker(t, reportProduct()).Build(context.Background(), "report"))
	require.NoError(t, second.Err)
	assert.Equal(t, domain.OutcomeBuilt, second.Outcome)
}

func TestBaker_FailureIsRetried(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	gomock.InOrder(
		f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, domain.ErrToolFailed),
		f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult),
	)

	h1 := b.Build(context.Background(), "report")
	res := wait(t, h1)
	assert.ErrorIs(t, res.Err, domain.ErrToolFailed)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.NoFileExists(t, filepath.Join(f.root, "out", "result.txt"))

	h2 := b.Build(context.Background(), "report")
	assert.NotSame(t, h1, h2)
	require.NoError(t, wait(t, h2).Err)
}

func TestBaker_Failures(t *testing.T) {
	tests := []struct {
		name    string
		product *domain.Product
		run     func(t *testing.T, f *fixture)
		want    error
	}{
		{
			name: "UnknownTool",
			product: domain.NewProduct("report", []domain.Action{{
				Tool:    "missing",
				Outputs: domain.MustParseGlobSet("out/*.txt"),
			}}),
			want: domain.ErrToolNotFound,
		},
		{
			name:    "ClientDirTouched",
			product: reportProduct(),
			run: func(t *testing.T, f *fixture) {
				f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
						err := inv.Exec.Run(ctx, ports.Command{
							Name: "cp",
							Args: []string{filepath.Join(f.root, "src", "a.txt"), "out/result.txt"},
						})
						return nil, err
					})
			},
			want: domain.ErrClientDirTouched,
		},
		{
			name:    "EnvironmentCarriesClientPath",
			product: reportProduct(),
			run: func(t *testing.T, f *fixture) {
				f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
						err := inv.Exec.Run(ctx, ports.Command{
							Name: "sh",
							Env:  []string{"KILN_OPT_DEST=" + filepath.Join(f.root, "evil.txt")},
						})
						return nil, err
					})
			},
			want: domain.ErrClientDirTouched,
		},
		{
			name:    "InputMentionsClientPath",
			product: reportProduct(),
			run: func(t *testing.T, f *fixture) {
				f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, _ ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
						err := inv.Exec.Run(ctx, ports.Command{
							Name:  "sh",
							Args:  []string{"-s"},
							Stdin: strings.NewReader("echo pwned > " + filepath.Join(f.root, "evil.txt") + "\n"),
						})
						return nil, err
					})
			},
			want: domain.ErrClientDirTouched,
		},
		{
			name:    "ToolChangedWhileRunning",
			product: reportProduct(),
			run: func(t *testing.T, f *fixture) {
				f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, script ports.Script, _ ports.Invocation) (*ports.ScriptResult, error) {
						return &ports.ScriptResult{Loaded: []domain.LoadedFile{
							{Path: script.Path, Hash: domain.HashString("newer")},
						}}, nil
					})
			},
			want: domain.ErrVersionSkew,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.run != nil {
				tt.run(t, f)
			}
			b := f.newBaker(t, tt.product)

			res := wait(t, b.Build(context.Background(), tt.product.Name))
			assert.ErrorIs(t, res.Err, tt.want)
			assert.Equal(t, domain.OutcomeFailed, res.Outcome)
			assert.Empty(t, f.store.Updates(), "client tree untouched")
		})
	}
}

func TestBaker_GuardedExecRunsInWorkDir(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	var (
		dir   string
		env   []string
		input []byte
	)
	f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd ports.Command) error {
			dir = cmd.Dir
			env = cmd.Env
			var err error
			input, err = io.ReadAll(cmd.Stdin)
			return err
		})
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, script ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
			err := inv.Exec.Run(ctx, ports.Command{
				Name:  "sh",
				Args:  []string{"-s", "--", "-v", "src/a.txt"},
				Env:   []string{"KILN_OPT_LEVEL=2", "KILN_INPUTS=src/a.txt"},
				Stdin: strings.NewReader("cat src/a.txt\n"),
			})
			if err != nil {
				return nil, err
			}
			assert.Equal(t, inv.Dir, dir)
			assert.Equal(t, []string{"KILN_OPT_LEVEL=2", "KILN_INPUTS=src/a.txt"}, env)
			assert.Equal(t, "cat src/a.txt\n", string(input))
			return writeResult(ctx, script, inv)
		})

	require.NoError(t, wait(t, b.Build(context.Background(), "report")).Err)
}

func TestBaker_ToolScriptsCannotReachClientDir(t *testing.T) {
	// CLIENT stands for the client root in scripts and option values.
	tests := []struct {
		name   string
		script string
		dest   string
	}{
		{name: "ThroughOption", script: "echo pwned > \"$KILN_OPT_DEST\"\n", dest: "CLIENT/evil.txt"},
		{name: "ThroughSource", script: "echo pwned > CLIENT/evil.txt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write(t, "tools/gen.sh", strings.ReplaceAll(tt.script, "CLIENT", f.root))

			var opts domain.Options
			if tt.dest != "" {
				opts = domain.NewOptions(domain.Option{Name: "dest", Value: strings.ReplaceAll(tt.dest, "CLIENT", f.root)})
			}
			product := domain.NewProduct("report", []domain.Action{{
				Tool:    "gen",
				Inputs:  domain.MustParseGlobSet("src/*.txt"),
				Outputs: domain.MustParseGlobSet("out/*.txt"),
				Options: opts,
			}})

			b, err := baker.New(f.cfg, f.store, f.records, baker.Deps{
				Engine:   script.NewEngine(),
				Runner:   shell.NewExecutor(f.logs),
				Logger:   f.logs,
				Tracer:   telemetry.NewNoOpTracer(),
				Progress: telemetry.NewNoOpProgress(),
				Metrics:  f.metrics,
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			b.ProductChanged(product)

			res := wait(t, b.Build(context.Background(), "report"))
			assert.ErrorIs(t, res.Err, domain.ErrClientDirTouched)
			assert.NoFileExists(t, filepath.Join(f.root, "evil.txt"))
		})
	}
}

func TestBaker_CallerCancellationKeepsSharedBuild(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	started := make(chan struct{})
	release := make(chan struct{})
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, script ports.Script, inv ports.Invocation) (*ports.ScriptResult, error) {
			close(started)
			<-release
			return writeResult(ctx, script, inv)
		})

	ctx, cancel := context.WithCancel(context.Background())
	h1 := b.Build(ctx, "report")
	<-started
	h2 := b.Build(context.Background(), "report")
	require.Same(t, h1, h2)

	cancel()
	_, err := h1.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	res := wait(t, h2)
	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeBuilt, res.Outcome)
}

func TestBaker_CloseCancelsBuilds(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())

	started := make(chan struct{})
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ ports.Script, _ ports.Invocation) (*ports.ScriptResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	h := b.Build(context.Background(), "report")
	<-started
	require.NoError(t, b.Close())

	res := wait(t, h)
	assert.ErrorIs(t, res.Err, domain.ErrBuildCancelled)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
}

func TestBaker_CachedBuildSkipsStaging(t *testing.T) {
	f := newFixture(t)
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult).Times(1)

	first := f.newBaker(t, reportProduct())
	require.NoError(t, wait(t, first.Build(context.Background(), "report")).Err)
	require.NoError(t, first.Close())

	second := f.newBaker(t, reportProduct())
	// Without a working directory base any staging attempt fails.
	require.NoError(t, os.RemoveAll(f.work))

	res := wait(t, second.Build(context.Background(), "report"))
	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeCached, res.Outcome)
	assert.NoDirExists(t, f.work)
}

func TestBaker_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t)

	h := b.Build(context.Background(), "ghost")
	res, ok := h.Result()
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, domain.ErrUnknownProduct)
	assert.Equal(t, "ghost", h.Product())
}

func TestBaker_Invalidation(t *testing.T) {
	f := newFixture(t)
	b := f.newBaker(t, reportProduct())
	f.engine.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeResult).AnyTimes()

	build := func() *baker.Handle {
		h := b.Build(context.Background(), "report")
		require.NoError(t, wait(t, h).Err)
		return h
	}

	h := build()

	b.FilesChanged([]domain.FileChange{{Path: "out/result.txt", Kind: domain.FileModified}})
	assert.Same(t, h, b.Build(context.Background(), "report"), "own outputs do not invalidate")

	b.FilesChanged([]domain.FileChange{{Path: "docs/readme.md", Kind: domain.FileModified}})
	assert.Same(t, h, b.Build(context.Background(), "report"), "unrelated paths do not invalidate")

	b.FilesChanged([]domain.FileChange{{Path: "src/b.txt", Kind: domain.FileModified}})
	next := b.Build(context.Background(), "report")
	assert.NotSame(t, h, next, "input changes invalidate")
	h = next
	require.NoError(t, wait(t, h).Err)

	b.FilesChanged([]domain.FileChange{{Path: "tools/other.sh", Kind: domain.FileModified}})
	assert.Same(t, h, b.Build(context.Background(), "report"), "unused tools do not invalidate")

	b.FilesChanged([]domain.FileChange{{Path: "tools/gen.sh", Kind: domain.FileModified}})
	next = b.Build(context.Background(), "report")
	assert.NotSame(t, h, next, "tool changes invalidate")
	require.NoError(t, wait(t, next).Err)

	b.ProductDestroyed("report")
	res := wait(t, b.Build(context.Background(), "report"))
	assert.True(t, errors.Is(res.Err, domain.ErrUnknownProduct))
}
