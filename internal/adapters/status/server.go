// Package status serves a read-only HTTP view of the build state.
package status

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Source is the build state the server reports on.
type Source interface {
	// Products returns the visible products sorted by name.
	Products() []*domain.Product
	// Product returns a visible product by name.
	Product(name string) (*domain.Product, bool)
	// WriteGraph renders the current dependency graph as DOT.
	WriteGraph(w io.Writer) error
}

// SpanSource returns recently finished spans.
type SpanSource interface {
	Recent() []telemetry.SpanRecord
}

// Server exposes /healthz, /products, /products/:name, /graph, /builds and /metrics.
type Server struct {
	router *gin.Engine
}

// New creates a status server over the given sources.
func New(source Source, spans SpanSource, gatherer prometheus.Gatherer) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{source: source, spans: spans}
	router.GET("/healthz", h.health)
	router.GET("/products", h.products)
	router.GET("/products/:name", h.product)
	router.GET("/graph", h.graph)
	router.GET("/builds", h.builds)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &Server{router: router}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen for status requests"), "addr", addr)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, "status server failed")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return zerr.Wrap(err, "failed to shut down status server")
		}
		return nil
	}
}

type handlers struct {
	source Source
	spans  SpanSource
}

type errorResponse struct {
	Error string `json:"error"`
}

type actionView struct {
	Tool    string         `json:"tool"`
	Inputs  domain.GlobSet `json:"inputs"`
	Outputs domain.GlobSet `json:"outputs"`
	Options domain.Options `json:"options"`
}

type productView struct {
	Name         string         `json:"name"`
	Doc          string         `json:"doc,omitempty"`
	Source       string         `json:"source,omitempty"`
	Intermediate bool           `json:"intermediate"`
	Inputs       domain.GlobSet `json:"inputs"`
	Outputs      domain.GlobSet `json:"outputs"`
	Actions      []actionView   `json:"actions,omitempty"`
}

func viewOf(p *domain.Product, withActions bool) productView {
	v := productView{
		Name:         p.Name,
		Doc:          p.Doc,
		Source:       p.Source,
		Intermediate: p.Intermediate,
		Inputs:       p.Inputs,
		Outputs:      p.Outputs,
	}
	if withActions {
		for _, a := range p.Actions {
			v.Actions = append(v.Actions, actionView(a))
		}
	}
	return v
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) products(c *gin.Context) {
	products := h.source.Products()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, viewOf(p, false))
	}
	c.JSON(http.StatusOK, views)
}

func (h *handlers) product(c *gin.Context) {
	name := c.Param("name")
	p, ok := h.source.Product(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown product " + name})
		return
	}
	c.JSON(http.StatusOK, viewOf(p, true))
}

func (h *handlers) graph(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.source.WriteGraph(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", buf.Bytes())
}

func (h *handlers) builds(c *gin.Context) {
	spans := h.spans.Recent()
	if spans == nil {
		spans = []telemetry.SpanRecord{}
	}
	c.JSON(http.StatusOK, spans)
}
