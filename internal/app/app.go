// Package app assembles a configured Candidly instance: storage, interview
// engines, evaluation scorers, auth, observability, and the HTTP server.
//
// [New] turns a [config.Config] plus instantiated providers into a runnable
// [App]; cmd/candidly is a thin shell around it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/config"
	"github.com/candidly-dev/candidly/internal/evaluate"
	"github.com/candidly-dev/candidly/internal/feedback"
	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/internal/observe"
	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/internal/server"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/internal/store/postgres"
	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

// defaultEmbeddingDims matches text-embedding-3-small, the most common
// embedding model in practice.
const defaultEmbeddingDims = 1536

// seedTimeout bounds the startup question-bank seeding pass.
const seedTimeout = 2 * time.Minute

// NamedLLM labels a completion backend for breaker-chain registration.
type NamedLLM struct {
	Name     string
	Provider llm.Provider
}

// Providers holds the instantiated external backends the app builds on.
// Every field is optional: without an LLM the question bank drives the
// interview, without embeddings retrieval falls back to insertion order.
type Providers struct {
	LLM        NamedLLM
	Fallbacks  []NamedLLM
	Embeddings embeddings.Provider
}

// App is a fully wired Candidly instance.
type App struct {
	cfg *config.Config

	store      store.Store
	pgStore    *postgres.Store // non-nil when we own a pool to close
	interviews *interview.Service
	evaluator  *evaluate.Service
	auth       *auth.Service

	registry    *prometheus.Registry
	metrics     *observe.Metrics
	shutdownObs observe.ShutdownFunc

	server *server.Server
}

// Option customises [New], mainly for tests.
type Option func(*App)

// WithStore injects a pre-built store, bypassing the DSN-based selection.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// New wires all services per cfg. The returned App is ready for [App.Run].
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if err := a.initStore(ctx); err != nil {
		return nil, err
	}
	if err := a.initObservability(); err != nil {
		return nil, err
	}
	a.initInterviews(providers)
	a.initEvaluator(providers)

	if cfg.Auth.TokenSecret != "" {
		tokenTTL := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
		authSvc, err := auth.NewService(a.store, cfg.Auth.TokenSecret, tokenTTL)
		if err != nil {
			return nil, fmt.Errorf("app: init auth: %w", err)
		}
		a.auth = authSvc
	} else {
		slog.Warn("no auth token secret configured, accounts disabled")
	}

	if cfg.Interview.SeedQuestionBank {
		if err := a.seedBank(ctx, providers.Embeddings); err != nil {
			return nil, err
		}
	}

	var fbStore *feedback.FileStore
	if cfg.Storage.FeedbackPath != "" {
		fbStore = feedback.NewFileStore(cfg.Storage.FeedbackPath)
	}

	srv, err := server.New(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		TLS:        cfg.Server.TLS,
		Interviews: a.interviews,
		Evaluator:  a.evaluator,
		Auth:       a.auth,
		Store:      a.store,
		Feedback:   fbStore,
		Metrics:    a.metrics,
		Registry:   a.registry,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init server: %w", err)
	}
	a.server = srv
	if a.pgStore != nil {
		srv.AddReadinessProbe("postgres", a.pgStore.Ping)
	}

	return a, nil
}

// initStore selects PostgreSQL when a DSN is configured and the in-memory
// store otherwise. An injected store wins either way.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if dsn := a.cfg.Storage.PostgresDSN; dsn != "" {
		dims := a.cfg.Storage.EmbeddingDimensions
		if dims == 0 {
			dims = defaultEmbeddingDims
		}
		pg, err := postgres.New(ctx, dsn, dims)
		if err != nil {
			return fmt.Errorf("app: connect postgres: %w", err)
		}
		a.pgStore = pg
		a.store = pg
		slog.Info("storage ready", "backend", "postgres", "embedding_dims", dims)
		return nil
	}
	a.store = store.NewMemStore()
	slog.Warn("no postgres dsn configured, sessions are in-memory only")
	return nil
}

func (a *App) initObservability() error {
	a.registry = prometheus.NewRegistry()
	shutdown, err := observe.InitProvider("candidly", a.registry)
	if err != nil {
		return fmt.Errorf("app: init observability: %w", err)
	}
	a.shutdownObs = shutdown
	a.metrics, err = observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("app: init metrics: %w", err)
	}
	return nil
}

// initInterviews builds the engine chain: the LLM (with its fallbacks behind
// one breaker chain) first, the question bank as the engine of last resort.
func (a *App) initInterviews(providers *Providers) {
	var engines []interview.NamedEngine

	if chain := a.llmChain(providers); chain != nil {
		engines = append(engines, interview.NamedEngine{
			Name:   "llm",
			Engine: interview.NewLLM(chain),
		})
	}

	bankOpts := []interview.BankOption{interview.WithQuestionBank(a.store)}
	if providers.Embeddings != nil {
		bankOpts = append(bankOpts, interview.WithEmbedder(providers.Embeddings))
	}
	engines = append(engines, interview.NamedEngine{
		Name:   "bank",
		Engine: interview.NewBank(bankOpts...),
	})

	svc := interview.NewService(a.store, resilience.BreakerConfig{}, engines...)
	svc.SetDefaults(interview.Defaults{
		Difficulty:   a.cfg.Interview.DefaultDifficulty,
		Persona:      a.cfg.Interview.DefaultPersona,
		MaxQuestions: a.cfg.Interview.DefaultMaxQuestions,
	})
	a.interviews = svc
}

// initEvaluator prefers the LLM rubric grader and keeps the heuristic scorer
// as the always-available fallback.
func (a *App) initEvaluator(providers *Providers) {
	var scorers []evaluate.NamedScorer
	if chain := a.llmChain(providers); chain != nil {
		scorers = append(scorers, evaluate.Scorer("llm", evaluate.NewLLM(chain)))
	}
	scorers = append(scorers, evaluate.Scorer("heuristic", evaluate.NewHeuristic()))
	a.evaluator = evaluate.NewService(resilience.BreakerConfig{}, scorers...)
}

// llmChain wraps the configured completion backends in a breaker chain, or
// returns nil when none is configured.
func (a *App) llmChain(providers *Providers) *resilience.LLMChain {
	if providers.LLM.Provider == nil {
		return nil
	}
	chain := resilience.NewLLMChain(providers.LLM.Provider, providers.LLM.Name, resilience.BreakerConfig{})
	for _, fb := range providers.Fallbacks {
		chain.AddFallback(fb.Name, fb.Provider)
	}
	return chain
}

func (a *App) seedBank(ctx context.Context, embedder embeddings.Provider) error {
	if embedder == nil {
		slog.Warn("seed_question_bank set but no embeddings provider configured, skipping")
		return nil
	}
	seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()
	if err := interview.SeedBank(seedCtx, a.store, embedder); err != nil {
		return fmt.Errorf("app: seed question bank: %w", err)
	}
	slog.Info("question bank seeded")
	return nil
}

// Server exposes the HTTP server, mainly for tests.
func (a *App) Server() *server.Server {
	return a.server
}

// Interviews exposes the interview service for alternative frontends such as
// the MCP bridge.
func (a *App) Interviews() *interview.Service {
	return a.interviews
}

// Run serves HTTP until ctx is cancelled, then drains connections.
func (a *App) Run(ctx context.Context) error {
	slog.Info("candidly listening", "addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)
	if err := a.server.Run(ctx); err != nil {
		return fmt.Errorf("app: serve: %w", err)
	}
	return nil
}

// Shutdown releases resources not covered by [App.Run]'s own draining: the
// metrics/trace providers and the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.shutdownObs != nil {
		if err := a.shutdownObs(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: shutdown observability: %w", err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	return errors.Join(errs...)
}
