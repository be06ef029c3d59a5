package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
	llmmock "github.com/candidly-dev/candidly/pkg/provider/llm/mock"
)

const testResume = "Seven years of backend work across payments and logistics, mostly Go and Postgres."

func newBankService(st store.SessionStore) *Service {
	return NewService(st, resilience.BreakerConfig{}, NamedEngine{Name: "bank", Engine: NewBank()})
}

func startRequest() api.StartRequest {
	return api.StartRequest{
		ResumeText: testResume,
		TargetRole: "Backend Engineer",
	}
}

func TestService_StartRecordsOpeningTurn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newBankService(st)

	resp, err := svc.Start(ctx, startRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.ID == 0 || resp.FirstQuestion == "" || resp.QuestionIndex != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}

	sess, err := st.GetSession(ctx, resp.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Difficulty != api.DifficultyMedium || sess.Persona != api.PersonaFriendly {
		t.Errorf("defaults not applied: %+v", sess)
	}
	if sess.MaxQuestions != DefaultMaxQuestions {
		t.Errorf("max questions = %d, want %d", sess.MaxQuestions, DefaultMaxQuestions)
	}

	turns, _ := st.ListTurns(ctx, resp.ID)
	if len(turns) != 1 || turns[0].Role != RoleAssistant || turns[0].Content != resp.FirstQuestion {
		t.Errorf("turns = %+v, want the opening question recorded", turns)
	}
}

func TestService_StartValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newBankService(store.NewMemStore())

	cases := []struct {
		name string
		req  api.StartRequest
	}{
		{"short resume", api.StartRequest{ResumeText: "too short", TargetRole: "Backend"}},
		{"short role", api.StartRequest{ResumeText: testResume, TargetRole: "B"}},
		{"bad difficulty", api.StartRequest{ResumeText: testResume, TargetRole: "Backend", Difficulty: "impossible"}},
		{"bad persona", api.StartRequest{ResumeText: testResume, TargetRole: "Backend", PersonaMode: "hostile"}},
		{"too many questions", api.StartRequest{ResumeText: testResume, TargetRole: "Backend", MaxQuestions: 99}},
	}
	for _, tc := range cases {
		if _, err := svc.Start(ctx, tc.req); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: err = %v, want ErrInvalid", tc.name, err)
		}
	}
}

func TestService_SubmitAdvancesQuestionIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := store.NewMemStore()
	svc := newBankService(st)

	started, _ := svc.Start(ctx, startRequest())

	solid := "I led the migration to keyset pagination, cutting query latency from 900ms to 40ms at the p99 under production load."
	resp, err := svc.SubmitAnswer(ctx, started.ID, solid)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if resp.IsFollowUp {
		t.Error("solid answer produced a follow-up")
	}
	if resp.QuestionIndex != 1 {
		t.Errorf("question index = %d, want 1", resp.QuestionIndex)
	}

	turns, _ := st.ListTurns(ctx, started.ID)
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want question/answer/question", len(turns))
	}
	if turns[1].Role != RoleUser || turns[1].Content != solid {
		t.Errorf("turns[1] = %+v, want the recorded answer", turns[1])
	}
	if turns[2].Role != RoleAssistant || turns[2].Content != resp.NextQuestion {
		t.Errorf("turns[2] = %+v, want the next question", turns[2])
	}
}

func TestService_FollowUpKeepsQuestionIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newBankService(store.NewMemStore())

	started, _ := svc.Start(ctx, startRequest())

	resp, err := svc.SubmitAnswer(ctx, started.ID, "Redis, mostly.")
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !resp.IsFollowUp {
		t.Fatal("short answer did not produce a follow-up")
	}
	if resp.QuestionIndex != 0 {
		t.Errorf("question index = %d, want 0 after a follow-up", resp.QuestionIndex)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newBankService(store.NewMemStore())

	started, _ := svc.Start(ctx, startRequest())

	if _, err := svc.SubmitAnswer(ctx, started.ID, "   "); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty answer err = %v, want ErrInvalid", err)
	}
	if _, err := svc.SubmitAnswer(ctx, started.ID, strings.Repeat("a", maxAnswerLength+1)); !errors.Is(err, ErrInvalid) {
		t.Errorf("oversized answer err = %v, want ErrInvalid", err)
	}
	if _, err := svc.SubmitAnswer(ctx, 404, "an answer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown session err = %v, want ErrNotFound", err)
	}
}

func TestService_SubmitAfterEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newBankService(store.NewMemStore())

	started, _ := svc.Start(ctx, startRequest())
	if _, err := svc.End(ctx, started.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	if _, err := svc.SubmitAnswer(ctx, started.ID, "a late answer"); !errors.Is(err, ErrEnded) {
		t.Errorf("err = %v, want ErrEnded", err)
	}
}

func TestService_EndIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newBankService(store.NewMemStore())

	started, _ := svc.Start(ctx, startRequest())
	svc.SubmitAnswer(ctx, started.ID, "First answer with enough substance to avoid any follow-up question from the bank engine.")

	first, err := svc.End(ctx, started.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if first.Status != store.StatusEnded || first.TotalTurns != 3 || first.EndedAt == "" {
		t.Errorf("end response = %+v", first)
	}

	second, err := svc.End(ctx, started.ID)
	if err != nil {
		t.Fatalf("End (second): %v", err)
	}
	if second.EndedAt != first.EndedAt {
		t.Error("second End changed the end timestamp")
	}
}

func TestService_OwnershipEnforced(t *testing.T) {
	t.Parallel()
	st := store.NewMemStore()
	svc := newBankService(st)

	owner := uuid.New()
	ownerCtx := auth.WithUser(context.Background(), owner)
	started, err := svc.Start(ownerCtx, startRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Anonymous and foreign callers are both rejected.
	if _, err := svc.SubmitAnswer(context.Background(), started.ID, "an answer"); !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous err = %v, want ErrForbidden", err)
	}
	strangerCtx := auth.WithUser(context.Background(), uuid.New())
	if _, err := svc.End(strangerCtx, started.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger err = %v, want ErrForbidden", err)
	}

	// The owner is not.
	if _, err := svc.End(ownerCtx, started.ID); err != nil {
		t.Errorf("owner End: %v", err)
	}
}

func TestService_LLMFailureFallsBackToBank(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	down := &llmmock.Provider{Err: errors.New("backend down")}
	svc := NewService(store.NewMemStore(), resilience.BreakerConfig{},
		NamedEngine{Name: "llm", Engine: NewLLM(down)},
		NamedEngine{Name: "bank", Engine: NewBank()},
	)

	resp, err := svc.Start(ctx, startRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(resp.FirstQuestion, "API you built") {
		t.Errorf("first question = %q, want the bank opener", resp.FirstQuestion)
	}
	if len(down.Calls) != 1 {
		t.Errorf("llm calls = %d, want 1", len(down.Calls))
	}
}

func TestService_UsesLLMWhenHealthy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"question": "Walk me through your resume.", "is_follow_up": false}`,
	}}
	svc := NewService(store.NewMemStore(), resilience.BreakerConfig{},
		NamedEngine{Name: "llm", Engine: NewLLM(provider)},
		NamedEngine{Name: "bank", Engine: NewBank()},
	)

	resp, err := svc.Start(ctx, startRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.FirstQuestion != "Walk me through your resume." {
		t.Errorf("first question = %q, want the model's question", resp.FirstQuestion)
	}
}
