// Package evaluate scores candidate answers on a four-axis rubric.
//
// The rubric axes are relevance, depth, clarity and confidence, each 0-100,
// plus a weighted overall score and short coaching feedback. Two scorers are
// provided: [LLM] asks a completion backend to grade against the rubric, and
// [Heuristic] computes scores from surface features of the answer text. The
// [Service] chains them so that evaluation still produces a result when the
// LLM is down.
package evaluate

import (
	"context"
	"math"

	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/pkg/api"
)

// Weights of the rubric axes in the overall score.
const (
	weightRelevance  = 0.35
	weightDepth      = 0.35
	weightClarity    = 0.15
	weightConfidence = 0.15
)

// Service implements [api.EvaluationService] by trying a preferred scorer
// first and falling through to backups. In the usual wiring the LLM scorer is
// primary and the heuristic scorer is the terminal fallback, so Evaluate only
// errors when the request itself is unusable.
type Service struct {
	chain *resilience.Chain[api.EvaluationService]
}

var _ api.EvaluationService = (*Service)(nil)

// NewService builds a [Service] from scorers in priority order.
func NewService(cfg resilience.BreakerConfig, scorers ...NamedScorer) *Service {
	c := resilience.NewChain[api.EvaluationService](cfg)
	for _, s := range scorers {
		c.Add(s.Name, s.Scorer)
	}
	return &Service{chain: c}
}

// NamedScorer labels a scorer for chain registration and log output.
type NamedScorer struct {
	Name   string
	Scorer api.EvaluationService
}

// Scorer is a convenience constructor for [NamedScorer].
func Scorer(name string, s api.EvaluationService) NamedScorer {
	return NamedScorer{Name: name, Scorer: s}
}

// Evaluate implements api.EvaluationService.
func (s *Service) Evaluate(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	return resilience.DoWithResult(s.chain, func(sc api.EvaluationService) (api.Evaluation, error) {
		return sc.Evaluate(ctx, req)
	})
}

// clamp bounds v into the rubric's 0-100 range.
func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// round2 rounds to two decimal places, the precision of stored scores.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// overall computes the weighted summary score from already-clamped axes.
func overall(relevance, depth, clarity, confidence float64) float64 {
	return round2(weightRelevance*relevance + weightDepth*depth +
		weightClarity*clarity + weightConfidence*confidence)
}
