// Package server exposes the family graph editor over a local HTTP API.
// It is thin plumbing: every operation delegates to the editor, the layout
// engine or the rendering sinks, and the handlers only translate between
// HTTP and those packages.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kintreehq/kintree/pkg/cache"
	"github.com/kintreehq/kintree/pkg/editor"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// artifactTTL bounds how long derived layouts and renders stay cached.
// Keys already change with every edit; the TTL only reclaims space.
const artifactTTL = 24 * time.Hour

// Server wires the editor and its collaborators into an HTTP handler.
type Server struct {
	editor  *editor.Editor
	cache   cache.Cache
	keyer   cache.Keyer
	metrics layout.Metrics
	logger  *log.Logger
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithCache sets the derived-artifact cache. Default is no caching.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(s *Server) {
		s.cache = c
		s.keyer = k
	}
}

// WithMetrics overrides the layout spacing constants.
func WithMetrics(m layout.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request and soft-failure logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion records the build version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a server around an editor.
func New(ed *editor.Editor, opts ...Option) *Server {
	s := &Server{
		editor:  ed,
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		metrics: layout.DefaultMetrics,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGetGraph)
		r.Get("/layout", s.handleGetLayout)
		r.Get("/render/svg", s.handleRenderSVG)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)

		r.Route("/people", func(r chi.Router) {
			r.Post("/", s.handleCreatePerson)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleUpdatePerson)
				r.Delete("/", s.handleDeletePerson)
				r.Put("/parents", s.handleSetParents)
				r.Put("/photo", s.handleSetPhoto)
				r.Delete("/photo", s.handleRemovePhoto)
				r.Post("/siblings/{sid}", s.handleAddSibling)
				r.Delete("/siblings/{sid}", s.handleRemoveSibling)
			})
		})
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests and pending persistence writes.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.editor.Flush()
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
