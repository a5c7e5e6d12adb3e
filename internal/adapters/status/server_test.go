package status_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/status"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	products []*domain.Product
	graphErr error
}

func (f *fakeSource) Products() []*domain.Product {
	return f.products
}

func (f *fakeSource) Product(name string) (*domain.Product, bool) {
	for _, p := range f.products {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (f *fakeSource) WriteGraph(w io.Writer) error {
	if f.graphErr != nil {
		return f.graphErr
	}
	_, err := fmt.Fprint(w, "digraph kiln {\n}\n")
	return err
}

type fakeSpans []telemetry.SpanRecord

func (f fakeSpans) Recent() []telemetry.SpanRecord {
	return f
}

func newServer(t *testing.T, source *fakeSource, spans fakeSpans) (*status.Server, *metrics.Recorder) {
	t.Helper()
	rec := metrics.New()
	return status.New(source, spans, rec.Gatherer()), rec
}

func get(t *testing.T, srv *status.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func sampleSource() *fakeSource {
	app := domain.NewProduct("app", []domain.Action{{
		Tool:    "cc",
		Inputs:  domain.MustParseGlobSet("src/*.c"),
		Outputs: domain.MustParseGlobSet("bin/app"),
		Options: domain.NewOptions(domain.Option{Name: "opt", Value: "-O2"}),
	}}, domain.WithDoc("the app"), domain.WithSource("kiln.hcl"))
	return &fakeSource{products: []*domain.Product{app}}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, nil)

	w := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Products(t *testing.T) {
	srv, _ := newServer(t, sampleSource(), nil)

	w := get(t, srv, "/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"name": "app",
		"doc": "the app",
		"source": "kiln.hcl",
		"intermediate": false,
		"inputs": ["src/*.c"],
		"outputs": ["bin/app"]
	}]`, w.Body.String())
}

func TestServer_Product(t *testing.T) {
	srv, _ := newServer(t, sampleSource(), nil)

	w := get(t, srv, "/products/app")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Name    string `json:"name"`
		Actions []struct {
			Tool    string         `json:"tool"`
			Options map[string]any `json:"options"`
		} `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "app", body.Name)
	require.Len(t, body.Actions, 1)
	assert.Equal(t, "cc", body.Actions[0].Tool)
	assert.Equal(t, "-O2", body.Actions[0].Options["opt"])

	w = get(t, srv, "/products/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"unknown product missing"}`, w.Body.String())
}

func TestServer_Graph(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, nil)

	w := get(t, srv, "/graph")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "digraph kiln {\n}\n", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/vnd.graphviz"))

	srv, _ = newServer(t, &fakeSource{graphErr: errors.New("boom")}, nil)
	w = get(t, srv, "/graph")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_Builds(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, nil)
	w := get(t, srv, "/builds")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	spans := fakeSpans{{Name: "build", Product: "app", Start: start, End: start.Add(time.Second), Elapsed: time.Second}}
	srv, _ = newServer(t, &fakeSource{}, spans)
	w = get(t, srv, "/builds")
	require.Equal(t, http.StatusOK, w.Code)

	var got []telemetry.SpanRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "app", got[0].Product)
	assert.Equal(t, time.Second, got[0].Elapsed)
}

func TestServer_Metrics(t *testing.T) {
	srv, rec := newServer(t, &fakeSource{}, nil)
	rec.BuildFinished("app", domain.OutcomeBuilt, time.Second)

	w := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `kiln_builds_total{outcome="built"} 1`)
}

func TestServer_Serve(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestServer_ServeBadAddress(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, nil)
	err := srv.Serve(context.Background(), "not-an-address")
	assert.Error(t, err)
}
