package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/brief/internal/gitctx"
	"github.com/dshills/brief/internal/logging"
	"github.com/dshills/brief/internal/metrics"
	"github.com/dshills/brief/internal/redact"
	"github.com/dshills/brief/internal/summary"
)

const maxBodyBytes = 10 << 20

// Service is the subset of summary.Service the server needs.
type Service interface {
	Analyze(ctx context.Context, req summary.Request) (*summary.Response, error)
	Summarize(ctx context.Context, req summary.Request) (*summary.Response, error)
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves the collector's registry on /metrics.
func WithMetrics(m *metrics.Collector) Option { return func(s *Server) { s.metrics = m } }

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// WithRedactor scrubs candidates before they reach the service.
func WithRedactor(r *redact.Redactor) Option { return func(s *Server) { s.redactor = r } }

// WithDiffOptions sets the include/exclude filters applied to raw diffs.
func WithDiffOptions(opts gitctx.DiffOptions) Option { return func(s *Server) { s.diffOpts = opts } }

// Server is the HTTP front end of a summary Service.
type Server struct {
	svc      Service
	metrics  *metrics.Collector
	log      *slog.Logger
	redactor *redact.Redactor
	diffOpts gitctx.DiffOptions
}

// New creates a Server.
func New(svc Service, opts ...Option) *Server {
	s := &Server{svc: svc, log: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1/summaries", func(r chi.Router) {
		r.Post("/", s.handle(summary.ModeSummarize))
		r.Post("/analyze", s.handle(summary.ModeAnalyze))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
