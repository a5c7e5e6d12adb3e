package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/adapters/filestore"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/plan"
	"go.trai.ch/kiln/internal/adapters/script"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/status"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/baker"
	"go.trai.ch/kiln/internal/engine/scheduler"
)

const pipelinePlan = `
product "joined" {
  doc          = "all sources in one file"
  intermediate = true

  action "concat" {
    inputs  = ["src/*.txt"]
    outputs = ["gen/joined.txt"]
  }
}

product "upper" {
  action "shout" {
    inputs  = ["gen/joined.txt"]
    outputs = ["out/upper.txt"]
  }
}
`

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []error
}

func (l *recordingLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
}

func (l *recordingLogger) infoMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.infos...)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func (l *recordingLogger) loggedErrors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errors...)
}

type fixture struct {
	root    string
	app     *app.App
	logger  *recordingLogger
	metrics *metrics.Recorder
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// newFixture creates a client tree with the concat/shout pipeline and an App over it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	work := t.TempDir()

	writeFile(t, root, "kiln.yaml", "workdir: "+work+"\nparallelism: 2\nwatch:\n  debounce: 10ms\n  rebuild_interval: 10ms\n")
	writeFile(t, root, "kiln.hcl", pipelinePlan)
	writeFile(t, root, "tools/concat.sh", "cat $KILN_INPUTS > gen/joined.txt\n")
	writeFile(t, root, "tools/shout.sh", "tr a-z A-Z < gen/joined.txt > out/upper.txt\n")
	writeFile(t, root, "src/a.txt", "alpha\n")
	writeFile(t, root, "src/b.txt", "beta\n")

	log := &recordingLogger{}
	rec := metrics.New()
	spans := telemetry.NewSpanLog(telemetry.DefaultSpanLogSize)

	a := app.New(app.Deps{
		ConfigLoader: config.NewLoader(log),
		OpenFiles: func(_ context.Context, cfg *domain.Config) (ports.FileStore, error) {
			return filestore.Open(cfg.Root, cfg.Ignore, log, filestore.WithInMemoryIndex())
		},
		OpenRecords: func(root string) (ports.BuildRecordStore, error) {
			return cas.NewStore(root), nil
		},
		OpenWatcher: func(cfg *domain.Config) (ports.Watcher, error) {
			return watcher.NewWatcher(cfg.Debounce, cfg.Ignore, log)
		},
		Plans: plan.NewLoader(),
		Baker: baker.Deps{
			Engine:   script.NewEngine(),
			Runner:   shell.NewExecutor(log),
			Logger:   log,
			Tracer:   telemetry.NewNoOpTracer(),
			Progress: telemetry.NewNoOpProgress(),
			Metrics:  rec,
		},
		Cooker: scheduler.NewCooker(),
		Status: func(source status.Source) *status.Server {
			return status.New(source, spans, rec.Gatherer())
		},
		Metrics: rec,
		Tracer:  telemetry.NewNoOpTracer(),
		Logger:  log,
	}).WithWorkingDir(root)

	return &fixture{root: root, app: a, logger: log, metrics: rec}
}

func (f *fixture) builds(outcome domain.BuildOutcome) float64 {
	c, err := f.metrics.Gatherer().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range c {
		if mf.GetName() != "kiln_builds_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == string(outcome) {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.Build(ctx, nil, app.BuildOptions{}))
	assert.Equal(t, "alpha\nbeta\n", readFile(t, f.root, "gen/joined.txt"))
	assert.Equal(t, "ALPHA\nBETA\n", readFile(t, f.root, "out/upper.txt"))
	assert.Equal(t, float64(2), f.builds(domain.OutcomeBuilt))
	assert.Empty(t, f.logger.loggedErrors())
}

func TestApp_Build_CachedAcrossRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.Build(ctx, nil, app.BuildOptions{}))
	require.NoError(t, f.app.Build(ctx, nil, app.BuildOptions{}))
	assert.Equal(t, float64(2), f.builds(domain.OutcomeBuilt))
	assert.Equal(t, float64(2), f.builds(domain.OutcomeCached))

	writeFile(t, f.root, "src/b.txt", "gamma\n")
	require.NoError(t, f.app.Build(ctx, nil, app.BuildOptions{}))
	assert.Equal(t, "ALPHA\nGAMMA\n", readFile(t, f.root, "out/upper.txt"))
	assert.Equal(t, float64(4), f.builds(domain.OutcomeBuilt))
}

func TestApp_Build_SingleGoal(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.Build(context.Background(), []string{"joined"}, app.BuildOptions{Parallelism: 1}))
	assert.FileExists(t, filepath.Join(f.root, "gen", "joined.txt"))
	assert.NoFileExists(t, filepath.Join(f.root, "out", "upper.txt"))
}

func TestApp_Build_FailureSkipsDependants(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "tools/concat.sh", "echo broken >&2\nexit 3\n")

	err := f.app.Build(context.Background(), nil, app.BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuildFailed))

	logged := f.logger.loggedErrors()
	require.Len(t, logged, 1)
	assert.True(t, errors.Is(logged[0], domain.ErrToolFailed))
	assert.Contains(t, f.logger.warnings(), "skipped upper: a prerequisite failed")
	assert.NoFileExists(t, filepath.Join(f.root, "out", "upper.txt"))
	assert.Equal(t, float64(1), f.builds(domain.OutcomeFailed))
}

func TestApp_Build_Errors(t *testing.T) {
	tests := []struct {
		name   string
		plan   string
		goals  []string
		target error
	}{
		{
			name:   "UnknownGoal",
			plan:   pipelinePlan,
			goals:  []string{"missing"},
			target: domain.ErrMissingGoal,
		},
		{
			name:   "BrokenPlan",
			plan:   `product "x" {`,
			target: domain.ErrPlanParse,
		},
		{
			name: "Cycle",
			plan: `
product "a" {
  action "concat" {
    inputs  = ["x/*"]
    outputs = ["y/out"]
  }
}
product "b" {
  action "concat" {
    inputs  = ["y/*"]
    outputs = ["x/out"]
  }
}
`,
			goals:  []string{"a"},
			target: domain.ErrDependencyCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			writeFile(t, f.root, "kiln.hcl", tt.plan)

			err := f.app.Build(context.Background(), tt.goals, app.BuildOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestApp_Build_NothingToBuild(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.root, "kiln.hcl")))

	require.NoError(t, f.app.Build(context.Background(), nil, app.BuildOptions{}))
	assert.Contains(t, f.logger.infoMessages(), "nothing to build")
}

func TestApp_Graph(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "docs/kiln.hcl", `
product "docs" {
  action "concat" {
    inputs  = ["docs/*.md"]
    outputs = ["site/index.html"]
  }
}
`)

	var all strings.Builder
	require.NoError(t, f.app.Graph(context.Background(), nil, &all))
	assert.Contains(t, all.String(), `"docs";`)
	assert.Contains(t, all.String(), `"upper" -> "joined";`)

	var sub strings.Builder
	require.NoError(t, f.app.Graph(context.Background(), []string{"upper"}, &sub))
	assert.NotContains(t, sub.String(), `"docs"`)
	assert.Contains(t, sub.String(), `"joined" [style=dashed, tooltip="all sources in one file"];`)
}

func TestApp_Products(t *testing.T) {
	f := newFixture(t)

	products, err := f.app.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "joined", products[0].Name)
	assert.Equal(t, "kiln.hcl", products[0].Source)
	assert.True(t, products[0].Intermediate)
	assert.Equal(t, "upper", products[1].Name)
}

func TestApp_Products_NamingConflict(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, "other/kiln.hcl", `
product "upper" {
  action "shout" {
    inputs  = ["other/*"]
    outputs = ["other/out"]
  }
}
`)

	products, err := f.app.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "joined", products[0].Name)
	assert.Contains(t, strings.Join(f.logger.warnings(), "\n"), "product upper is defined in kiln.hcl, other/kiln.hcl")
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.app.Build(ctx, nil, app.BuildOptions{}))

	records := filepath.Join(f.root, domain.DefaultRecordsPath())
	archive := filepath.Join(f.root, domain.DefaultArchivePath())
	require.NoError(t, os.MkdirAll(archive, 0o750))
	require.DirExists(t, records)

	require.NoError(t, f.app.Clean(ctx, app.CleanOptions{}))
	assert.NoDirExists(t, archive)
	assert.DirExists(t, records)

	require.NoError(t, f.app.Clean(ctx, app.CleanOptions{All: true}))
	assert.NoDirExists(t, records)
	assert.FileExists(t, filepath.Join(f.root, "out", "upper.txt"))
}

func TestApp_Watch(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- f.app.Watch(ctx, nil, app.WatchOptions{})
	}()

	upper := filepath.Join(f.root, "out", "upper.txt")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(upper)
		return err == nil && string(data) == "ALPHA\nBETA\n"
	}, 10*time.Second, 20*time.Millisecond)

	writeFile(t, f.root, "src/c.txt", "gamma\n")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(upper)
		return err == nil && string(data) == "ALPHA\nBETA\nGAMMA\n"
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestMetricsWired(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Build(context.Background(), nil, app.BuildOptions{}))

	count, err := testutil.GatherAndCount(f.metrics.Gatherer(), "kiln_graph_products")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
