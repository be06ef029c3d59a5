package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
	llmmock "github.com/candidly-dev/candidly/pkg/provider/llm/mock"
)

func TestLLMEngine_ParsesReply(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"question": "How did you shard the database?", "is_follow_up": false}`,
	}}

	nq, err := NewLLM(provider).NextQuestion(context.Background(), Prompt{
		ResumeText:    "Ten years of storage engine work.",
		TargetRole:    "Backend Engineer",
		Difficulty:    api.DifficultyHard,
		Persona:       api.PersonaStrict,
		QuestionIndex: 2,
		MaxQuestions:  8,
		Transcript: []Turn{
			{Role: RoleAssistant, Content: "Tell me about indexing."},
			{Role: RoleUser, Content: "I rebuilt our btree layout."},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nq.Question != "How did you shard the database?" || nq.IsFollowUp {
		t.Errorf("got %+v", nq)
	}

	prompt := provider.Calls[0].Req.Messages[0].Content
	for _, want := range []string{
		"Backend Engineer",
		"Question number: 3 of 8",
		instructionsStrict,
		"storage engine work",
		"rebuilt our btree layout",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLLMEngine_AcceptsFencedJSON(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: "Here you go:\n```json\n{\"question\": \"Expand on that.\", \"is_follow_up\": true}\n```",
	}}

	nq, err := NewLLM(provider).NextQuestion(context.Background(), Prompt{MaxQuestions: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nq.IsFollowUp || nq.Question != "Expand on that." {
		t.Errorf("got %+v", nq)
	}
}

func TestLLMEngine_RejectsEmptyQuestion(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"question": "   ", "is_follow_up": false}`,
	}}

	if _, err := NewLLM(provider).NextQuestion(context.Background(), Prompt{MaxQuestions: 8}); !errors.Is(err, errEmptyQuestion) {
		t.Errorf("err = %v, want errEmptyQuestion", err)
	}
}

func TestLLMEngine_RejectsNonJSON(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: "What would you do differently next time?",
	}}

	if _, err := NewLLM(provider).NextQuestion(context.Background(), Prompt{MaxQuestions: 8}); err == nil {
		t.Fatal("expected an error for a completion without JSON")
	}
}

func TestLLMEngine_TruncatesTranscriptWindow(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{Response: &llm.Response{
		Content: `{"question": "Next?", "is_follow_up": false}`,
	}}

	transcript := make([]Turn, 0, 20)
	for i := 0; i < 20; i++ {
		role := RoleAssistant
		if i%2 == 1 {
			role = RoleUser
		}
		transcript = append(transcript, Turn{Role: role, Content: "turn"})
	}
	transcript[0].Content = "the very first question"

	if _, err := NewLLM(provider).NextQuestion(context.Background(), Prompt{
		MaxQuestions: 25,
		Transcript:   transcript,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := provider.Calls[0].Req.Messages[0].Content
	if strings.Contains(prompt, "the very first question") {
		t.Error("prompt contains turns outside the recency window")
	}
}
