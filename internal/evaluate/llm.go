package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

const graderSystemPrompt = `You are a strict but fair interview coach grading a candidate's answer.`

const graderTemperature = 0.2

// LLM grades answers by asking a completion backend to fill in the rubric as
// strict JSON.
type LLM struct {
	provider llm.Provider
}

var _ api.EvaluationService = (*LLM)(nil)

// NewLLM returns an LLM scorer backed by provider.
func NewLLM(provider llm.Provider) *LLM {
	return &LLM{provider: provider}
}

// rubricReply is the JSON shape the grader model is instructed to return.
type rubricReply struct {
	Relevance    float64 `json:"relevance"`
	Depth        float64 `json:"depth"`
	Clarity      float64 `json:"clarity"`
	Confidence   float64 `json:"confidence"`
	OverallScore float64 `json:"overall_score"`
	Feedback     string  `json:"feedback"`
}

// Evaluate implements api.EvaluationService.
func (l *LLM) Evaluate(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	resp, err := l.provider.Complete(ctx, llm.Request{
		SystemPrompt: graderSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: gradingPrompt(req)},
		},
		Temperature: graderTemperature,
		ForceJSON:   true,
	})
	if err != nil {
		return api.Evaluation{}, fmt.Errorf("evaluate: completion: %w", err)
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return api.Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}

	var reply rubricReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return api.Evaluation{}, fmt.Errorf("evaluate: decode rubric: %w", err)
	}

	return api.Evaluation{
		Relevance:    round2(clamp(reply.Relevance)),
		Depth:        round2(clamp(reply.Depth)),
		Clarity:      round2(clamp(reply.Clarity)),
		Confidence:   round2(clamp(reply.Confidence)),
		OverallScore: round2(clamp(reply.OverallScore)),
		Feedback:     strings.TrimSpace(reply.Feedback),
	}, nil
}

// gradingPrompt renders the rubric instructions for one question/answer pair.
func gradingPrompt(req api.EvaluationRequest) string {
	var b strings.Builder
	b.WriteString("You are evaluating a candidate's interview answer")
	if req.TargetRole != "" {
		fmt.Fprintf(&b, " for the role %q", req.TargetRole)
	}
	b.WriteString(".\n\nQuestion:\n\"\"\"")
	b.WriteString(req.Question)
	b.WriteString("\"\"\"\n\nAnswer:\n\"\"\"")
	b.WriteString(req.Answer)
	b.WriteString("\"\"\"\n\n")
	b.WriteString(`Return STRICT JSON only (no markdown, no commentary) with this exact shape:
{
  "relevance": <number 0-100>,
  "depth": <number 0-100>,
  "clarity": <number 0-100>,
  "confidence": <number 0-100>,
  "overall_score": <number 0-100>,
  "feedback": "short coaching feedback for the candidate"
}

Guidelines:
- Relevance: how directly the answer addresses the question.
- Depth: level of detail, examples, and reasoning.
- Clarity: structure, coherence, and ease of understanding.
- Confidence: decisiveness and lack of hedging language (without being arrogant).
- overall_score should reflect a weighted summary of the above.`)
	return b.String()
}

// extractJSON returns the substring from the first '{' to the last '}' of
// text. Grader models sometimes wrap the JSON in markdown fences or prose.
func extractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object in completion")
	}
	return text[start : end+1], nil
}
