package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlUsers = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID         PRIMARY KEY,
    email         TEXT         NOT NULL,
    password_hash TEXT         NOT NULL,
    full_name     TEXT         NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
    ON users (lower(email));
`

const ddlSessions = `
CREATE TABLE IF NOT EXISTS interview_sessions (
    id             BIGSERIAL    PRIMARY KEY,
    user_id        UUID         REFERENCES users (id) ON DELETE SET NULL,
    resume_text    TEXT         NOT NULL DEFAULT '',
    target_role    TEXT         NOT NULL,
    difficulty     TEXT         NOT NULL DEFAULT 'medium',
    persona        TEXT         NOT NULL DEFAULT 'friendly',
    max_questions  INT          NOT NULL DEFAULT 8,
    question_index INT          NOT NULL DEFAULT 0,
    status         TEXT         NOT NULL DEFAULT 'active',
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now(),
    ended_at       TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id
    ON interview_sessions (user_id);

CREATE INDEX IF NOT EXISTS idx_sessions_status
    ON interview_sessions (status);
`

const ddlTurns = `
CREATE TABLE IF NOT EXISTS interview_turns (
    id          BIGSERIAL    PRIMARY KEY,
    session_id  BIGINT       NOT NULL REFERENCES interview_sessions (id) ON DELETE CASCADE,
    turn_index  INT          NOT NULL,
    role        TEXT         NOT NULL,
    content     TEXT         NOT NULL,
    evaluation  JSONB,
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    UNIQUE (session_id, turn_index)
);

CREATE INDEX IF NOT EXISTS idx_turns_session_id
    ON interview_turns (session_id);
`

// ddlBank returns the question-bank DDL with the embedding dimension
// substituted. The vector dimension is baked into the column type at schema
// creation time.
func ddlBank(embeddingDimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS bank_questions (
    id          BIGSERIAL    PRIMARY KEY,
    role        TEXT         NOT NULL,
    difficulty  TEXT         NOT NULL DEFAULT 'medium',
    text        TEXT         NOT NULL,
    embedding   vector(%d),
    UNIQUE (role, difficulty, text)
);

CREATE INDEX IF NOT EXISTS idx_bank_role
    ON bank_questions (role);

CREATE INDEX IF NOT EXISTS idx_bank_embedding
    ON bank_questions USING hnsw (embedding vector_cosine_ops);
`, embeddingDimensions)
}

// Migrate creates or ensures all required tables and extensions exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool, embeddingDimensions int) error {
	statements := []string{
		ddlUsers,
		ddlSessions,
		ddlTurns,
		ddlBank(embeddingDimensions),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return nil
}
