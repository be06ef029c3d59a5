package evaluate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
	llmmock "github.com/candidly-dev/candidly/pkg/provider/llm/mock"
)

func TestLLM_ParsesRubricReply(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"relevance": 88, "depth": 74.5, "clarity": 90, "confidence": 81, "overall_score": 82.53, "feedback": "Good structure, add metrics."}`,
	}}

	got, err := NewLLM(provider).Evaluate(context.Background(), api.EvaluationRequest{
		Question:   "Describe a hard bug you fixed.",
		Answer:     "A race condition in our queue consumer.",
		TargetRole: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Relevance != 88 || got.Depth != 74.5 || got.Clarity != 90 || got.Confidence != 81 {
		t.Errorf("axes = %+v, want the model's values", got)
	}
	if got.OverallScore != 82.53 {
		t.Errorf("overall = %v, want 82.53", got.OverallScore)
	}
	if got.Feedback != "Good structure, add metrics." {
		t.Errorf("feedback = %q", got.Feedback)
	}

	// The grading prompt must carry the question, answer and role.
	if len(provider.Calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(provider.Calls))
	}
	prompt := provider.Calls[0].Req.Messages[0].Content
	for _, want := range []string{"hard bug", "race condition", "Backend Engineer"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLLM_StripsMarkdownFence(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: "```json\n{\"relevance\": 50, \"depth\": 50, \"clarity\": 50, \"confidence\": 50, \"overall_score\": 50, \"feedback\": \"ok\"}\n```",
	}}

	got, err := NewLLM(provider).Evaluate(context.Background(), api.EvaluationRequest{
		Question: "Q", Answer: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OverallScore != 50 {
		t.Errorf("overall = %v, want 50", got.OverallScore)
	}
}

func TestLLM_ClampsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"relevance": 150, "depth": -10, "clarity": 60, "confidence": 60, "overall_score": 101, "feedback": ""}`,
	}}

	got, err := NewLLM(provider).Evaluate(context.Background(), api.EvaluationRequest{
		Question: "Q", Answer: "A",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Relevance != 100 {
		t.Errorf("relevance = %v, want clamped to 100", got.Relevance)
	}
	if got.Depth != 0 {
		t.Errorf("depth = %v, want clamped to 0", got.Depth)
	}
	if got.OverallScore != 100 {
		t.Errorf("overall = %v, want clamped to 100", got.OverallScore)
	}
}

func TestLLM_ErrorsWithoutJSON(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: "I would rate this answer quite highly overall.",
	}}

	if _, err := NewLLM(provider).Evaluate(context.Background(), api.EvaluationRequest{
		Question: "Q", Answer: "A",
	}); err == nil {
		t.Fatal("expected an error for a completion without JSON")
	}
}

func TestService_FallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	down := &llmmock.Provider{Err: errors.New("backend down")}
	svc := NewService(resilience.BreakerConfig{},
		Scorer("llm", NewLLM(down)),
		Scorer("heuristic", NewHeuristic()),
	)

	got, err := svc.Evaluate(context.Background(), api.EvaluationRequest{
		Question: "Tell me about a recent project.",
		Answer:   "I built a small tool.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Feedback != heuristicFeedback {
		t.Errorf("feedback = %q, want the heuristic notice", got.Feedback)
	}
	if len(down.Calls) != 1 {
		t.Errorf("llm calls = %d, want 1", len(down.Calls))
	}
}
