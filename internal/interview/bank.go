package interview

import (
	"context"
	"log/slog"
	"strings"

	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
)

// followUpMinLength is the answer length below which a follow-up is asked.
const followUpMinLength = 60

// weakAnswerMarkers trigger a follow-up regardless of answer length.
var weakAnswerMarkers = []string{"i don't know", "not sure", "no idea", "can't remember"}

// followUpPrefixes open the canned follow-up question per persona.
var followUpPrefixes = map[api.Persona]string{
	api.PersonaStrict:   "Your answer is too shallow. ",
	api.PersonaFriendly: "Thanks — could you expand a bit? ",
	api.PersonaStress:   "That's vague. ",
}

const followUpBody = "What exactly did you do, and what was the measurable impact?"

// BankEngine selects questions from a curated bank. It never fails, which
// makes it the terminal fallback engine: built-in role lists always produce a
// question even without a database or an embedding backend.
//
// When both a [store.QuestionBank] and an embedding provider are configured,
// the engine first tries questions ranked by semantic similarity to the
// candidate's resume, falling back to the built-in lists on any error.
type BankEngine struct {
	bank     store.QuestionBank
	embedder embeddings.Provider
}

var _ Engine = (*BankEngine)(nil)

// BankOption configures a [BankEngine].
type BankOption func(*BankEngine)

// WithQuestionBank enables retrieval of stored questions ranked by resume
// similarity. Requires an embedding provider via [WithEmbedder].
func WithQuestionBank(bank store.QuestionBank) BankOption {
	return func(e *BankEngine) { e.bank = bank }
}

// WithEmbedder sets the embedding provider used to rank stored questions.
func WithEmbedder(p embeddings.Provider) BankOption {
	return func(e *BankEngine) { e.embedder = p }
}

// NewBank returns a [BankEngine].
func NewBank(opts ...BankOption) *BankEngine {
	e := &BankEngine{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NextQuestion implements [Engine].
func (e *BankEngine) NextQuestion(ctx context.Context, p Prompt) (NextQuestion, error) {
	if p.LastAnswer != nil && needsFollowUp(*p.LastAnswer) {
		prefix, ok := followUpPrefixes[p.Persona]
		if !ok {
			prefix = followUpPrefixes[api.PersonaFriendly]
		}
		return NextQuestion{Question: prefix + followUpBody, IsFollowUp: true}, nil
	}

	questions := e.retrieve(ctx, p)
	if len(questions) == 0 {
		questions = builtinBank(p.TargetRole, p.Difficulty)
	}

	idx := p.QuestionIndex
	if max := p.MaxQuestions - 1; max >= 0 && idx > max {
		idx = max
	}
	return NextQuestion{Question: questions[idx%len(questions)]}, nil
}

// retrieve ranks stored bank questions by similarity between the resume and
// each question's embedding. Retrieval is best-effort.
func (e *BankEngine) retrieve(ctx context.Context, p Prompt) []string {
	if e.bank == nil || e.embedder == nil || p.ResumeText == "" {
		return nil
	}

	vec, err := e.embedder.Embed(ctx, p.TargetRole+"\n"+resumeSnippet(p.ResumeText))
	if err != nil {
		slog.Debug("bank retrieval embed failed", "error", err)
		return nil
	}
	stored, err := e.bank.SimilarQuestions(ctx, vec, roleCategory(p.TargetRole), p.MaxQuestions)
	if err != nil {
		slog.Debug("bank retrieval query failed", "error", err)
		return nil
	}

	out := make([]string, 0, len(stored))
	for _, q := range stored {
		out = append(out, q.Text)
	}
	return out
}

// needsFollowUp reports whether the answer is too weak to move on from.
func needsFollowUp(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	if len(a) < followUpMinLength {
		return true
	}
	for _, marker := range weakAnswerMarkers {
		if strings.Contains(a, marker) {
			return true
		}
	}
	return false
}

// roleCategory buckets a free-form target role into a bank category.
func roleCategory(targetRole string) string {
	role := strings.ToLower(targetRole)
	switch {
	case strings.Contains(role, "backend") || strings.Contains(role, "api"):
		return "backend"
	case strings.Contains(role, "frontend"):
		return "frontend"
	case strings.Contains(role, "data") || strings.Contains(role, "ml"):
		return "data"
	default:
		return "general"
	}
}

// builtinBank returns the built-in question list for a role and difficulty.
// Hard appends a system design capstone; easy prepends a warm-up.
func builtinBank(targetRole string, difficulty api.Difficulty) []string {
	var base []string
	switch roleCategory(targetRole) {
	case "backend":
		base = []string{
			"Walk me through an API you built end-to-end. What were the main trade-offs?",
			"How do you design pagination and filtering for a high-traffic endpoint?",
			"Explain how you would implement authentication and authorization for a new service.",
			"What are common database indexing pitfalls you've seen, and how do you diagnose them?",
			"How do you handle idempotency for write endpoints (e.g., payments, retries)?",
			"Describe a production incident you handled. What was the root cause and what did you change afterward?",
		}
	case "frontend":
		base = []string{
			"Describe a complex UI you built. How did you manage state and performance?",
			"How do you structure a component library for scale and consistency?",
			"Explain strategies for optimizing bundle size and runtime performance.",
			"How do you test UI logic effectively (unit vs integration vs e2e)?",
			"Tell me about an accessibility issue you fixed and the approach you used.",
		}
	case "data":
		base = []string{
			"Walk through a project where you improved a model or pipeline. What changed and why?",
			"How do you detect data drift and decide when to retrain?",
			"Explain precision/recall trade-offs for an imbalanced classification problem.",
			"How do you ensure reproducibility in experiments and deployments?",
			"Describe how you'd design feature stores and offline/online parity.",
		}
	default:
		base = []string{
			"Tell me about a project you're proud of. What was your specific impact?",
			"How do you approach ambiguous requirements and align stakeholders?",
			"Describe a difficult bug you fixed. How did you narrow it down?",
			"How do you prioritize tasks under tight deadlines?",
			"What does 'quality' mean to you in software delivery?",
		}
	}

	switch difficulty {
	case api.DifficultyHard:
		base = append(base, "Design a scalable system for this role. Include data model, APIs, caching, and failure modes.")
	case api.DifficultyEasy:
		base = append([]string{"Give me a quick summary of your background and why you're interested in this role."}, base...)
	}
	return base
}
