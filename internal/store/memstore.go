package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It backs
// tests and database-less deployments. Use [NewMemStore] to construct one.
type MemStore struct {
	mu         sync.RWMutex
	nextSessID int64
	nextTurnID int64
	sessions   map[int64]Session
	turns      map[int64][]Turn
	users      map[uuid.UUID]User
	bank       []BankQuestion
	nextBankID int64
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[int64]Session),
		turns:    make(map[int64][]Turn),
		users:    make(map[uuid.UUID]User),
	}
}

// CreateSession implements [SessionStore.CreateSession].
func (s *MemStore) CreateSession(_ context.Context, sess Session) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessID++
	sess.ID = s.nextSessID
	sess.Status = StatusActive
	sess.CreatedAt = time.Now().UTC()
	s.sessions[sess.ID] = sess
	return sess, nil
}

// GetSession implements [SessionStore.GetSession].
func (s *MemStore) GetSession(_ context.Context, id int64) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// SetQuestionIndex implements [SessionStore.SetQuestionIndex].
func (s *MemStore) SetQuestionIndex(_ context.Context, id int64, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.QuestionIndex = index
	s.sessions[id] = sess
	return nil
}

// EndSession implements [SessionStore.EndSession].
func (s *MemStore) EndSession(_ context.Context, id int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Status != StatusEnded {
		now := time.Now().UTC()
		sess.Status = StatusEnded
		sess.EndedAt = &now
		s.sessions[id] = sess
	}
	return sess, nil
}

// AddTurn implements [SessionStore.AddTurn].
func (s *MemStore) AddTurn(_ context.Context, turn Turn) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[turn.SessionID]; !ok {
		return Turn{}, ErrNotFound
	}
	s.nextTurnID++
	turn.ID = s.nextTurnID
	turn.CreatedAt = time.Now().UTC()
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return turn, nil
}

// ListTurns implements [SessionStore.ListTurns].
func (s *MemStore) ListTurns(_ context.Context, sessionID int64) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.turns[sessionID]
	out := make([]Turn, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool { return out[i].TurnIndex < out[j].TurnIndex })
	return out, nil
}

// AttachEvaluation implements [SessionStore.AttachEvaluation].
func (s *MemStore) AttachEvaluation(_ context.Context, sessionID int64, turnIndex int, ev api.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.turns[sessionID]
	for i := range turns {
		if turns[i].TurnIndex != turnIndex {
			continue
		}
		if turns[i].Evaluation == nil {
			cp := ev
			turns[i].Evaluation = &cp
		}
		return nil
	}
	return ErrNotFound
}

// CreateUser implements [UserStore.CreateUser].
func (s *MemStore) CreateUser(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	for _, other := range s.users {
		if strings.ToLower(other.Email) == email {
			return User{}, ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

// GetUserByEmail implements [UserStore.GetUserByEmail].
func (s *MemStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// GetUser implements [UserStore.GetUser].
func (s *MemStore) GetUser(_ context.Context, id uuid.UUID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// AddBankQuestion implements [QuestionBank.AddBankQuestion].
func (s *MemStore) AddBankQuestion(_ context.Context, q BankQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bank {
		if s.bank[i].Role == q.Role && s.bank[i].Difficulty == q.Difficulty && s.bank[i].Text == q.Text {
			q.ID = s.bank[i].ID
			s.bank[i] = q
			return nil
		}
	}
	s.nextBankID++
	q.ID = s.nextBankID
	s.bank = append(s.bank, q)
	return nil
}

// SimilarQuestions implements [QuestionBank.SimilarQuestions]. Without vector
// support the MemStore ranks by cosine distance when both sides carry
// embeddings and falls back to insertion order otherwise.
func (s *MemStore) SimilarQuestions(_ context.Context, embedding []float32, role string, limit int) ([]BankQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []BankQuestion
	for _, q := range s.bank {
		if role != "" && q.Role != role {
			continue
		}
		out = append(out, q)
	}
	if len(embedding) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return embeddings.CosineDistance(embedding, out[i].Embedding) <
				embeddings.CosineDistance(embedding, out[j].Embedding)
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
