package evaluate

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/candidly-dev/candidly/pkg/api"
)

// echoThreshold is the minimum Jaro-Winkler similarity for an answer token to
// count as echoing a question keyword.
const echoThreshold = 0.90

const heuristicFeedback = "This is a heuristic evaluation. Improve depth with concrete examples, " +
	"quantified impact, and clearer structure."

// Heuristic scores answers from surface features of the text: length,
// sentence count, hedging language and how much of the question's vocabulary
// the answer echoes. It needs no network access and never fails, which makes
// it the terminal fallback scorer.
type Heuristic struct{}

var _ api.EvaluationService = (*Heuristic)(nil)

// NewHeuristic returns the heuristic scorer.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Evaluate implements api.EvaluationService.
func (h *Heuristic) Evaluate(_ context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	answer := strings.TrimSpace(req.Answer)
	question := strings.ToLower(strings.TrimSpace(req.Question))
	lower := strings.ToLower(answer)

	length := len(answer)
	sentences := strings.Count(answer, ".") + strings.Count(answer, "!") + strings.Count(answer, "?")
	if sentences < 1 {
		sentences = 1
	}

	relevance := 80.0
	if question != "" && containsAny(question, "why", "how", "design", "explain") {
		if !strings.Contains(lower, "because") && !strings.Contains(lower, "so that") {
			relevance -= 15
		}
	}
	// Reward answers that pick up the question's own vocabulary.
	relevance += 10 * keywordEcho(question, lower)

	depth := float64(length) / 400.0 * 100.0
	if depth > 100 {
		depth = 100
	}
	if strings.Contains(lower, "impact") || strings.Contains(lower, "result") {
		depth += 10
		if depth > 100 {
			depth = 100
		}
	}

	clarity := 70.0 + min(20.0, float64(sentences)*2.0)
	if containsAny(answer, "uh", "idk", "don't know") {
		clarity -= 10
	}

	confidence := 70.0
	if containsAny(lower, "i think", "maybe", "not sure") {
		confidence -= 15
	}
	if containsAny(lower, "definitely", "confident", "certain") {
		confidence += 5
	}

	relevance = round2(clamp(relevance))
	depth = round2(clamp(depth))
	clarity = round2(clamp(clarity))
	confidence = round2(clamp(confidence))

	return api.Evaluation{
		Relevance:    relevance,
		Depth:        depth,
		Clarity:      clarity,
		Confidence:   confidence,
		OverallScore: overall(relevance, depth, clarity, confidence),
		Feedback:     heuristicFeedback,
	}, nil
}

// keywordEcho returns the fraction of the question's content words (length 4+)
// that the answer echoes, allowing near-misses via Jaro-Winkler similarity.
// Both inputs must already be lowercased. Returns 0 when the question has no
// content words.
func keywordEcho(question, answer string) float64 {
	keywords := contentWords(question)
	if len(keywords) == 0 {
		return 0
	}
	answerTokens := strings.Fields(answer)

	echoed := 0
	for _, kw := range keywords {
		for _, tok := range answerTokens {
			if matchr.JaroWinkler(kw, strings.Trim(tok, ".,!?;:\"'"), false) >= echoThreshold {
				echoed++
				break
			}
		}
	}
	return float64(echoed) / float64(len(keywords))
}

// contentWords extracts the distinct tokens of length 4+ from s, stripped of
// trailing punctuation.
func contentWords(s string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ".,!?;:\"'")
		if len(tok) < 4 {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		words = append(words, tok)
	}
	return words
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
