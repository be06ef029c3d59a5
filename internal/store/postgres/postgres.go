// Package postgres provides the PostgreSQL-backed implementation of the
// Candidly store interfaces.
//
// All concerns share a single [pgxpool.Pool]. Question-bank embeddings are
// stored in a pgvector column so that [Store.SimilarQuestions] can rank by
// cosine distance in the database; [Migrate] installs the extension via
// CREATE EXTENSION IF NOT EXISTS.
//
// Usage:
//
//	st, err := postgres.New(ctx, dsn, 1536)
//	if err != nil { … }
//	defer st.Close()
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/candidly-dev/candidly/internal/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL-backed [store.Store]. All operations are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

type options struct {
	maxConns    int32
	connTimeout time.Duration
}

// Option tunes the connection pool.
type Option func(*options)

// WithMaxConns caps the pool size. Zero keeps the pgxpool default.
func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

// WithConnectTimeout bounds the initial connect of each pool connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connTimeout = d }
}

// New connects to the database at dsn, registers pgvector types on every
// connection, and runs [Migrate].
//
// embeddingDimensions must match the output dimension of the embedding model
// used for bank questions (e.g. 1536 for text-embedding-3-small). Changing it
// after the first migration requires a manual schema change.
func New(ctx context.Context, dsn string, embeddingDimensions int, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}
	if o.connTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = o.connTimeout
	}

	// Register pgvector types so vector columns scan into pgvector.Vector.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	st := &Store{pool: pool}
	if err := st.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := Migrate(ctx, pool, embeddingDimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}
	return st, nil
}

// Ping verifies database connectivity. Suitable as a readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}
