package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

const (
	// resumeSnippetLimit caps how much resume text goes into the prompt.
	resumeSnippetLimit = 8000

	// transcriptWindow is how many recent turns the prompt carries.
	transcriptWindow = 12

	interviewerTemperature = 0.7
)

const interviewerSystemPrompt = `You are conducting a live job interview. Ask one question at a time.`

// LLMEngine generates the next question with a completion backend. The model
// sees the persona instructions, a resume snippet and the recent transcript,
// and must reply with strict JSON.
type LLMEngine struct {
	provider llm.Provider
}

var _ Engine = (*LLMEngine)(nil)

// NewLLM returns an [LLMEngine] backed by provider.
func NewLLM(provider llm.Provider) *LLMEngine {
	return &LLMEngine{provider: provider}
}

// questionReply is the JSON shape the model is instructed to return.
type questionReply struct {
	Question   string `json:"question"`
	IsFollowUp bool   `json:"is_follow_up"`
}

// NextQuestion implements [Engine].
func (e *LLMEngine) NextQuestion(ctx context.Context, p Prompt) (NextQuestion, error) {
	resp, err := e.provider.Complete(ctx, llm.Request{
		SystemPrompt: interviewerSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: questionPrompt(p)},
		},
		Temperature: interviewerTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		return NextQuestion{}, fmt.Errorf("interview: completion: %w", err)
	}

	raw := resp.Content
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end <= start {
		return NextQuestion{}, fmt.Errorf("interview: no JSON object in completion")
	}

	var reply questionReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return NextQuestion{}, fmt.Errorf("interview: decode reply: %w", err)
	}
	reply.Question = strings.TrimSpace(reply.Question)
	if reply.Question == "" {
		return NextQuestion{}, errEmptyQuestion
	}
	return NextQuestion{Question: reply.Question, IsFollowUp: reply.IsFollowUp}, nil
}

// questionPrompt renders the model prompt for one turn.
func questionPrompt(p Prompt) string {
	transcript := p.Transcript
	if len(transcript) > transcriptWindow {
		transcript = transcript[len(transcript)-transcriptWindow:]
	}
	// Marshal of []Turn cannot fail.
	transcriptJSON, _ := json.Marshal(transcript)

	var b strings.Builder
	b.WriteString("You are conducting a live interview.\n")
	fmt.Fprintf(&b, "Personality mode instructions: %s\n\n", personaInstructions(p.Persona))
	fmt.Fprintf(&b, "Target role: %s\n", p.TargetRole)
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "Question number: %d of %d\n\n", p.QuestionIndex+1, p.MaxQuestions)
	fmt.Fprintf(&b, "Candidate resume (snippet):\n\"\"\"%s\"\"\"\n\n", resumeSnippet(p.ResumeText))
	fmt.Fprintf(&b, "Conversation transcript (most recent last):\n%s\n\n", transcriptJSON)
	b.WriteString(`Return STRICT JSON only:
{
  "question": "string",
  "is_follow_up": true|false
}

Guidelines:
- Ask one question only.
- If the last candidate answer is weak/short, produce a follow-up question.
- Otherwise produce the next best question for the role and difficulty.`)
	return b.String()
}

// resumeSnippet truncates resume text to the prompt limit.
func resumeSnippet(resume string) string {
	if len(resume) > resumeSnippetLimit {
		return resume[:resumeSnippetLimit]
	}
	return resume
}
