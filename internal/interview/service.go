package interview

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// Request validation limits, enforced on Start and SubmitAnswer.
const (
	minResumeLength     = 50
	minTargetRoleLength = 2
	maxAnswerLength     = 20000

	// DefaultMaxQuestions applies when StartRequest.MaxQuestions is zero.
	DefaultMaxQuestions = 8

	// MaxQuestionsCap bounds how long an interview may run.
	MaxQuestionsCap = 25
)

// Sentinel errors mapped to HTTP statuses by the server package.
var (
	ErrInvalid   = errors.New("interview: invalid request")
	ErrNotFound  = errors.New("interview: session not found")
	ErrEnded     = errors.New("interview: session has ended")
	ErrForbidden = errors.New("interview: not allowed")
)

// Transcript roles.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// TurnSink observes transcript mutations. The server's watch hub implements
// it to feed live transcript subscribers; a nil sink disables notification.
type TurnSink interface {
	// TurnAppended is called after a turn is durably recorded.
	TurnAppended(ctx context.Context, sess store.Session, turn store.Turn)

	// SessionEnded is called once per session, after the transition to ended.
	SessionEnded(ctx context.Context, sessionID int64, totalTurns int)
}

// Service runs live interview sessions against a [store.SessionStore] and an
// engine chain. It implements [api.InterviewService].
type Service struct {
	sessions store.SessionStore
	engines  *resilience.Chain[Engine]
	sink     TurnSink
	defaults Defaults
}

// Defaults fill in Start request fields left empty by the caller. Zero
// fields keep the package defaults (medium, friendly, [DefaultMaxQuestions]).
type Defaults struct {
	Difficulty   api.Difficulty
	Persona      api.Persona
	MaxQuestions int
}

var _ api.InterviewService = (*Service)(nil)

// NamedEngine labels an engine for chain registration and log output.
type NamedEngine struct {
	Name   string
	Engine Engine
}

// NewService builds a [Service] from engines in priority order. The last
// engine should be one that cannot fail, normally a [BankEngine].
func NewService(sessions store.SessionStore, cfg resilience.BreakerConfig, engines ...NamedEngine) *Service {
	chain := resilience.NewChain[Engine](cfg)
	for _, e := range engines {
		chain.Add(e.Name, e.Engine)
	}
	return &Service{sessions: sessions, engines: chain}
}

// SetSink installs a [TurnSink]. Must be called before the service starts
// handling requests.
func (s *Service) SetSink(sink TurnSink) {
	s.sink = sink
}

// SetDefaults overrides the session defaults applied by [Service.Start].
// Must be called before the service starts handling requests.
func (s *Service) SetDefaults(d Defaults) {
	s.defaults = d
}

func (s *Service) notifyTurn(ctx context.Context, sess store.Session, turn store.Turn) {
	if s.sink != nil {
		s.sink.TurnAppended(ctx, sess, turn)
	}
}

// Start implements [api.InterviewService]. The authenticated user from ctx,
// if any, becomes the session owner; anonymous sessions are allowed.
func (s *Service) Start(ctx context.Context, req api.StartRequest) (api.StartResponse, error) {
	if err := validateStart(req); err != nil {
		return api.StartResponse{}, err
	}

	sess := store.Session{
		ResumeText:   req.ResumeText,
		TargetRole:   strings.TrimSpace(req.TargetRole),
		Difficulty:   req.Difficulty,
		Persona:      req.PersonaMode,
		MaxQuestions: req.MaxQuestions,
	}
	if sess.Difficulty == "" {
		sess.Difficulty = cmp.Or(s.defaults.Difficulty, api.DifficultyMedium)
	}
	if sess.Persona == "" {
		sess.Persona = cmp.Or(s.defaults.Persona, api.PersonaFriendly)
	}
	if sess.MaxQuestions == 0 {
		sess.MaxQuestions = cmp.Or(s.defaults.MaxQuestions, DefaultMaxQuestions)
	}
	if id, ok := auth.UserID(ctx); ok {
		sess.UserID = &id
	}

	sess, err := s.sessions.CreateSession(ctx, sess)
	if err != nil {
		return api.StartResponse{}, fmt.Errorf("interview: create session: %w", err)
	}

	nq, err := s.nextQuestion(ctx, sess, nil, nil)
	if err != nil {
		return api.StartResponse{}, err
	}

	opening, err := s.sessions.AddTurn(ctx, store.Turn{
		SessionID: sess.ID,
		TurnIndex: 0,
		Role:      RoleAssistant,
		Content:   nq.Question,
	})
	if err != nil {
		return api.StartResponse{}, fmt.Errorf("interview: record opening question: %w", err)
	}
	s.notifyTurn(ctx, sess, opening)

	slog.Info("interview started",
		"session_id", sess.ID,
		"target_role", sess.TargetRole,
		"difficulty", sess.Difficulty,
		"persona", sess.Persona)

	return api.StartResponse{ID: sess.ID, FirstQuestion: nq.Question, QuestionIndex: 0}, nil
}

// SubmitAnswer implements [api.InterviewService]. Follow-up questions keep
// the session's question index; fresh questions advance it by one.
func (s *Service) SubmitAnswer(ctx context.Context, id int64, answer string) (api.SubmitResponse, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return api.SubmitResponse{}, fmt.Errorf("%w: answer must not be empty", ErrInvalid)
	}
	if len(answer) > maxAnswerLength {
		return api.SubmitResponse{}, fmt.Errorf("%w: answer exceeds %d characters", ErrInvalid, maxAnswerLength)
	}

	sess, err := s.ownedSession(ctx, id)
	if err != nil {
		return api.SubmitResponse{}, err
	}
	if sess.Status != store.StatusActive {
		return api.SubmitResponse{}, ErrEnded
	}

	turns, err := s.sessions.ListTurns(ctx, sess.ID)
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("interview: list turns: %w", err)
	}
	userTurn, err := s.sessions.AddTurn(ctx, store.Turn{
		SessionID: sess.ID,
		TurnIndex: len(turns),
		Role:      RoleUser,
		Content:   answer,
	})
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("interview: record answer: %w", err)
	}
	s.notifyTurn(ctx, sess, userTurn)

	transcript := make([]Turn, 0, len(turns)+1)
	for _, t := range turns {
		transcript = append(transcript, Turn{Role: t.Role, Content: t.Content})
	}
	transcript = append(transcript, Turn{Role: RoleUser, Content: answer})

	nq, err := s.nextQuestion(ctx, sess, transcript, &answer)
	if err != nil {
		return api.SubmitResponse{}, err
	}

	newIndex := sess.QuestionIndex
	if !nq.IsFollowUp {
		newIndex++
	}
	if err := s.sessions.SetQuestionIndex(ctx, sess.ID, newIndex); err != nil {
		return api.SubmitResponse{}, fmt.Errorf("interview: set question index: %w", err)
	}

	questionTurn, err := s.sessions.AddTurn(ctx, store.Turn{
		SessionID: sess.ID,
		TurnIndex: len(turns) + 1,
		Role:      RoleAssistant,
		Content:   nq.Question,
	})
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("interview: record question: %w", err)
	}
	s.notifyTurn(ctx, sess, questionTurn)

	return api.SubmitResponse{
		ID:            sess.ID,
		NextQuestion:  nq.Question,
		QuestionIndex: newIndex,
		IsFollowUp:    nq.IsFollowUp,
	}, nil
}

// End implements [api.InterviewService]. Ending an already-ended session is
// idempotent and returns the stored state.
func (s *Service) End(ctx context.Context, id int64) (api.EndResponse, error) {
	sess, err := s.ownedSession(ctx, id)
	if err != nil {
		return api.EndResponse{}, err
	}

	justEnded := false
	if sess.Status != store.StatusEnded {
		sess, err = s.sessions.EndSession(ctx, sess.ID)
		if err != nil {
			return api.EndResponse{}, fmt.Errorf("interview: end session: %w", err)
		}
		justEnded = true
		slog.Info("interview ended", "session_id", sess.ID)
	}

	turns, err := s.sessions.ListTurns(ctx, sess.ID)
	if err != nil {
		return api.EndResponse{}, fmt.Errorf("interview: list turns: %w", err)
	}
	if justEnded && s.sink != nil {
		s.sink.SessionEnded(ctx, sess.ID, len(turns))
	}

	resp := api.EndResponse{ID: sess.ID, Status: sess.Status, TotalTurns: len(turns)}
	if sess.EndedAt != nil {
		resp.EndedAt = sess.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp, nil
}

// Transcript returns the stored turns of an owned session.
func (s *Service) Transcript(ctx context.Context, id int64) ([]store.Turn, error) {
	sess, err := s.ownedSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.sessions.ListTurns(ctx, sess.ID)
}

// ownedSession loads the session and enforces ownership: sessions bound to a
// user are only visible to that user.
func (s *Service) ownedSession(ctx context.Context, id int64) (store.Session, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Session{}, ErrNotFound
	}
	if err != nil {
		return store.Session{}, fmt.Errorf("interview: get session: %w", err)
	}

	if sess.UserID != nil {
		caller, ok := auth.UserID(ctx)
		if !ok || caller != *sess.UserID {
			return store.Session{}, ErrForbidden
		}
	}
	return sess, nil
}

// nextQuestion runs the engine chain for one turn.
func (s *Service) nextQuestion(ctx context.Context, sess store.Session, transcript []Turn, lastAnswer *string) (NextQuestion, error) {
	nq, err := resilience.DoWithResult(s.engines, func(e Engine) (NextQuestion, error) {
		return e.NextQuestion(ctx, Prompt{
			ResumeText:    sess.ResumeText,
			TargetRole:    sess.TargetRole,
			Difficulty:    sess.Difficulty,
			Persona:       sess.Persona,
			Transcript:    transcript,
			QuestionIndex: sess.QuestionIndex,
			MaxQuestions:  sess.MaxQuestions,
			LastAnswer:    lastAnswer,
		})
	})
	if err != nil {
		return NextQuestion{}, fmt.Errorf("interview: next question: %w", err)
	}
	return nq, nil
}

func validateStart(req api.StartRequest) error {
	if len(strings.TrimSpace(req.ResumeText)) < minResumeLength {
		return fmt.Errorf("%w: resume_text must be at least %d characters", ErrInvalid, minResumeLength)
	}
	if len(strings.TrimSpace(req.TargetRole)) < minTargetRoleLength {
		return fmt.Errorf("%w: target_role must be at least %d characters", ErrInvalid, minTargetRoleLength)
	}
	if req.Difficulty != "" && !req.Difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, req.Difficulty)
	}
	if req.PersonaMode != "" && !req.PersonaMode.IsValid() {
		return fmt.Errorf("%w: unknown personality_mode %q", ErrInvalid, req.PersonaMode)
	}
	if req.MaxQuestions < 0 || req.MaxQuestions > MaxQuestionsCap {
		return fmt.Errorf("%w: max_questions must be between 1 and %d", ErrInvalid, MaxQuestionsCap)
	}
	return nil
}
