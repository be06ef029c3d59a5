// Package server exposes the Candidly HTTP API: account management, live
// interview sessions with a websocket transcript feed, standalone answer
// evaluation, and the operational endpoints (health probes and Prometheus
// metrics).
//
// Handlers translate between the wire types in
// [github.com/candidly-dev/candidly/pkg/api] and the domain services in
// internal/interview, internal/evaluate, and internal/auth. All errors leave
// the server as a JSON envelope {"error": "..."} with a status derived from
// the domain sentinel.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/config"
	"github.com/candidly-dev/candidly/internal/feedback"
	"github.com/candidly-dev/candidly/internal/health"
	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/internal/observe"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// shutdownTimeout bounds graceful connection draining on exit.
const shutdownTimeout = 15 * time.Second

// Config collects the dependencies a [Server] needs. Interviews and Store
// are required; a nil Auth disables the account endpoints and makes every
// session anonymous, a nil Evaluator disables scoring.
type Config struct {
	ListenAddr string
	TLS        *config.TLSConfig

	Interviews *interview.Service
	Evaluator  api.EvaluationService
	Auth       *auth.Service
	Store      store.Store

	// Feedback enables the session feedback endpoint when non-nil.
	Feedback *feedback.FileStore

	Metrics  *observe.Metrics
	Registry *prometheus.Registry
}

// Server is the Candidly HTTP server. Create with [New], run with [Run].
type Server struct {
	cfg        Config
	hub        *Hub
	health     *health.Handler
	httpServer *http.Server
}

// New wires the handler tree and the live transcript hub. The hub is
// installed as the interview service's turn sink, so transcript events and
// asynchronous answer scoring flow from every interview mutation.
func New(cfg Config) (*Server, error) {
	if cfg.Interviews == nil {
		return nil, errors.New("server: interview service is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	s := &Server{
		cfg:    cfg,
		hub:    NewHub(cfg.Store, cfg.Evaluator, cfg.Metrics),
		health: health.New("candidly"),
	}
	cfg.Interviews.SetSink(s.hub)

	s.health.AddProbe("store", func(ctx context.Context) error {
		_, err := cfg.Store.GetSession(ctx, 0)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(cfg.Metrics, s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// routes builds the full handler tree.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	optional := func(h http.HandlerFunc) http.Handler { return h }
	required := func(h http.HandlerFunc) http.Handler { return h }
	if s.cfg.Auth != nil {
		optional = func(h http.HandlerFunc) http.Handler { return s.cfg.Auth.Optional(h) }
		required = func(h http.HandlerFunc) http.Handler { return s.cfg.Auth.Required(h) }

		mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
		mux.HandleFunc("POST /api/auth/login", s.handleLogin)
		mux.Handle("GET /api/auth/me", required(s.handleMe))
	}

	mux.Handle("POST /api/interviews/live/start", optional(s.handleStart))
	mux.Handle("POST /api/interviews/live/{id}/submit", optional(s.handleSubmit))
	mux.Handle("POST /api/interviews/live/{id}/end", optional(s.handleEnd))
	mux.Handle("GET /api/interviews/live/{id}/transcript", optional(s.handleTranscript))
	mux.Handle("GET /api/interviews/live/{id}/watch", optional(s.handleWatch))

	if s.cfg.Feedback != nil {
		mux.Handle("POST /api/interviews/live/{id}/feedback", optional(s.handleFeedback))
	}

	if s.cfg.Evaluator != nil {
		mux.Handle("POST /api/answers/evaluate", optional(s.handleEvaluate))
	}

	s.health.Register(mux)
	if s.cfg.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

// AddReadinessProbe registers an extra probe on /readyz. Must be called
// before Run.
func (s *Server) AddReadinessProbe(name string, p health.Probe) {
	s.health.AddProbe(name, p)
}

// Handler returns the server's handler tree. Intended for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP until ctx is cancelled, then drains connections and shuts
// the watch hub down. It returns nil on clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.cfg.ListenAddr, "tls", s.cfg.TLS != nil)
		var err error
		if s.cfg.TLS != nil {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen on %s: %w", s.cfg.ListenAddr, err)
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.hub.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
