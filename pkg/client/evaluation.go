package client

import (
	"context"
	"fmt"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Evaluation is the HTTP client for the answer evaluation endpoint. The
// evaluation backend is independent of the interview backend and may sit at
// a different base URL; callers treat its results as best-effort.
type Evaluation struct {
	baseURL string
	opts    options
}

var _ api.EvaluationService = (*Evaluation)(nil)

// NewEvaluation creates an evaluation service client for the server at baseURL.
func NewEvaluation(baseURL string, opts ...Option) (*Evaluation, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("client: baseURL must not be empty")
	}
	return &Evaluation{
		baseURL: trimBaseURL(baseURL),
		opts:    buildOptions(opts),
	}, nil
}

// Evaluate implements api.EvaluationService.
func (c *Evaluation) Evaluate(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	var resp api.Evaluation
	err := postJSON(ctx, c.opts, c.baseURL+"/api/answers/evaluate", req, &resp)
	if err != nil {
		return api.Evaluation{}, fmt.Errorf("client: evaluate answer: %w", err)
	}
	return resp, nil
}
