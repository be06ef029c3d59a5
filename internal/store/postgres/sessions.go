package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// CreateSession implements [store.SessionStore].
func (s *Store) CreateSession(ctx context.Context, sess store.Session) (store.Session, error) {
	const q = `
		INSERT INTO interview_sessions
		    (user_id, resume_text, target_role, difficulty, persona, max_questions, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
		RETURNING id, question_index, status, created_at`

	err := s.pool.QueryRow(ctx, q,
		sess.UserID,
		sess.ResumeText,
		sess.TargetRole,
		string(sess.Difficulty),
		string(sess.Persona),
		sess.MaxQuestions,
	).Scan(&sess.ID, &sess.QuestionIndex, &sess.Status, &sess.CreatedAt)
	if err != nil {
		return store.Session{}, fmt.Errorf("postgres store: create session: %w", err)
	}
	return sess, nil
}

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(ctx context.Context, id int64) (store.Session, error) {
	const q = `
		SELECT id, user_id, resume_text, target_role, difficulty, persona,
		       max_questions, question_index, status, created_at, ended_at
		FROM   interview_sessions
		WHERE  id = $1`

	var (
		sess       store.Session
		difficulty string
		persona    string
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.ResumeText,
		&sess.TargetRole,
		&difficulty,
		&persona,
		&sess.MaxQuestions,
		&sess.QuestionIndex,
		&sess.Status,
		&sess.CreatedAt,
		&sess.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Session{}, store.ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("postgres store: get session: %w", err)
	}
	sess.Difficulty = api.Difficulty(difficulty)
	sess.Persona = api.Persona(persona)
	return sess, nil
}

// SetQuestionIndex implements [store.SessionStore].
func (s *Store) SetQuestionIndex(ctx context.Context, id int64, index int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE interview_sessions SET question_index = $2 WHERE id = $1`, id, index)
	if err != nil {
		return fmt.Errorf("postgres store: set question index: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// EndSession implements [store.SessionStore].
func (s *Store) EndSession(ctx context.Context, id int64) (store.Session, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE interview_sessions
		SET    status = 'ended', ended_at = now()
		WHERE  id = $1 AND status <> 'ended'`, id)
	if err != nil {
		return store.Session{}, fmt.Errorf("postgres store: end session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// AddTurn implements [store.SessionStore].
func (s *Store) AddTurn(ctx context.Context, turn store.Turn) (store.Turn, error) {
	const q = `
		INSERT INTO interview_turns (session_id, turn_index, role, content, evaluation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, q,
		turn.SessionID,
		turn.TurnIndex,
		turn.Role,
		turn.Content,
		turn.Evaluation,
	).Scan(&turn.ID, &turn.CreatedAt)
	if err != nil {
		return store.Turn{}, fmt.Errorf("postgres store: add turn: %w", err)
	}
	return turn, nil
}

// ListTurns implements [store.SessionStore].
func (s *Store) ListTurns(ctx context.Context, sessionID int64) ([]store.Turn, error) {
	const q = `
		SELECT id, session_id, turn_index, role, content, evaluation, created_at
		FROM   interview_turns
		WHERE  session_id = $1
		ORDER  BY turn_index`

	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list turns: %w", err)
	}

	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Turn, error) {
		var t store.Turn
		err := row.Scan(&t.ID, &t.SessionID, &t.TurnIndex, &t.Role, &t.Content, &t.Evaluation, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan turns: %w", err)
	}
	if turns == nil {
		turns = []store.Turn{}
	}
	return turns, nil
}

// AttachEvaluation implements [store.SessionStore]. The evaluation column is
// only written when still NULL, so the first score wins.
func (s *Store) AttachEvaluation(ctx context.Context, sessionID int64, turnIndex int, ev api.Evaluation) error {
	const q = `
		UPDATE interview_turns
		SET    evaluation = $3
		WHERE  session_id = $1 AND turn_index = $2 AND evaluation IS NULL`

	if _, err := s.pool.Exec(ctx, q, sessionID, turnIndex, ev); err != nil {
		return fmt.Errorf("postgres store: attach evaluation: %w", err)
	}
	return nil
}
