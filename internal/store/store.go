// Package store defines the persistence interfaces for interview sessions,
// turns, user accounts and the question bank.
//
// Two implementations exist: [MemStore], a mutex-guarded in-memory store used
// by tests and by deployments without a database, and the postgres subpackage,
// which backs the same interfaces with PostgreSQL and stores question-bank
// embeddings in pgvector for semantic retrieval.
//
// Every implementation must be safe for concurrent use.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/candidly-dev/candidly/pkg/api"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("store: email already registered")

// Session status values.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Session is one live interview session.
type Session struct {
	ID            int64
	UserID        *uuid.UUID
	ResumeText    string
	TargetRole    string
	Difficulty    api.Difficulty
	Persona       api.Persona
	MaxQuestions  int
	QuestionIndex int
	Status        string
	CreatedAt     time.Time
	EndedAt       *time.Time
}

// Turn is a single transcript entry within a session. TurnIndex is the
// position in the transcript, starting at 0 with the opening question.
// Evaluation is attached later for candidate turns that have been scored.
type Turn struct {
	ID         int64
	SessionID  int64
	TurnIndex  int
	Role       string
	Content    string
	Evaluation *api.Evaluation
	CreatedAt  time.Time
}

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// BankQuestion is a curated interview question with an optional embedding for
// semantic retrieval against resume text.
type BankQuestion struct {
	ID         int64
	Role       string
	Difficulty api.Difficulty
	Text       string
	Embedding  []float32
}

// SessionStore persists sessions and their transcripts.
type SessionStore interface {
	// CreateSession inserts sess and returns it with ID and CreatedAt set.
	CreateSession(ctx context.Context, sess Session) (Session, error)

	// GetSession returns the session with the given id, or [ErrNotFound].
	GetSession(ctx context.Context, id int64) (Session, error)

	// SetQuestionIndex updates the session's current question index.
	SetQuestionIndex(ctx context.Context, id int64, index int) error

	// EndSession marks the session ended and stamps EndedAt. Ending an
	// already-ended session is a no-op and returns the stored session.
	EndSession(ctx context.Context, id int64) (Session, error)

	// AddTurn appends a turn and returns it with ID and CreatedAt set.
	AddTurn(ctx context.Context, turn Turn) (Turn, error)

	// ListTurns returns all turns of a session ordered by TurnIndex.
	ListTurns(ctx context.Context, sessionID int64) ([]Turn, error)

	// AttachEvaluation stores an evaluation on the identified turn. The
	// first write wins; later writes for the same turn are ignored.
	AttachEvaluation(ctx context.Context, sessionID int64, turnIndex int, ev api.Evaluation) error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts u and returns it with ID and CreatedAt set.
	// Returns [ErrDuplicateEmail] when the email is taken.
	CreateUser(ctx context.Context, u User) (User, error)

	// GetUserByEmail returns the user with the given email, or [ErrNotFound].
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// GetUser returns the user with the given id, or [ErrNotFound].
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
}

// QuestionBank stores curated questions and retrieves them by similarity.
type QuestionBank interface {
	// AddBankQuestion inserts q, replacing any question with identical text
	// for the same role and difficulty.
	AddBankQuestion(ctx context.Context, q BankQuestion) error

	// SimilarQuestions returns up to limit questions for role ordered by
	// ascending vector distance to embedding. Implementations without
	// vector support may fall back to insertion order.
	SimilarQuestions(ctx context.Context, embedding []float32, role string, limit int) ([]BankQuestion, error)
}

// Store combines all persistence concerns behind one value.
type Store interface {
	SessionStore
	UserStore
	QuestionBank
}
