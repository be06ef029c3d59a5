package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// AddBankQuestion implements [store.QuestionBank]. Re-adding an existing
// question refreshes its embedding.
func (s *Store) AddBankQuestion(ctx context.Context, q store.BankQuestion) error {
	const stmt = `
		INSERT INTO bank_questions (role, difficulty, text, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, difficulty, text)
		DO UPDATE SET embedding = EXCLUDED.embedding`

	var emb any
	if len(q.Embedding) > 0 {
		emb = pgvector.NewVector(q.Embedding)
	}

	if _, err := s.pool.Exec(ctx, stmt, q.Role, string(q.Difficulty), q.Text, emb); err != nil {
		return fmt.Errorf("postgres store: add bank question: %w", err)
	}
	return nil
}

// SimilarQuestions implements [store.QuestionBank]. Results are ordered by
// cosine distance to embedding; questions without an embedding sort last.
func (s *Store) SimilarQuestions(ctx context.Context, embedding []float32, role string, limit int) ([]store.BankQuestion, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		rows pgx.Rows
		err  error
	)
	if len(embedding) > 0 {
		const q = `
			SELECT id, role, difficulty, text
			FROM   bank_questions
			WHERE  ($2 = '' OR role = $2)
			ORDER  BY embedding <=> $1 NULLS LAST
			LIMIT  $3`
		rows, err = s.pool.Query(ctx, q, pgvector.NewVector(embedding), role, limit)
	} else {
		const q = `
			SELECT id, role, difficulty, text
			FROM   bank_questions
			WHERE  ($1 = '' OR role = $1)
			ORDER  BY id
			LIMIT  $2`
		rows, err = s.pool.Query(ctx, q, role, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: similar questions: %w", err)
	}

	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.BankQuestion, error) {
		var (
			q          store.BankQuestion
			difficulty string
		)
		err := row.Scan(&q.ID, &q.Role, &difficulty, &q.Text)
		q.Difficulty = api.Difficulty(difficulty)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan questions: %w", err)
	}
	if questions == nil {
		questions = []store.BankQuestion{}
	}
	return questions, nil
}
