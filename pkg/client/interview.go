package client

import (
	"context"
	"fmt"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Interview is the HTTP client for the live interview endpoints. It is a
// stateless wrapper over the transport; all session state lives with the
// caller's orchestrator.
type Interview struct {
	baseURL string
	opts    options
}

var _ api.InterviewService = (*Interview)(nil)

// NewInterview creates an interview service client for the server at baseURL
// (e.g. "https://api.candidly.example").
func NewInterview(baseURL string, opts ...Option) (*Interview, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("client: baseURL must not be empty")
	}
	return &Interview{
		baseURL: trimBaseURL(baseURL),
		opts:    buildOptions(opts),
	}, nil
}

// Start implements api.InterviewService.
func (c *Interview) Start(ctx context.Context, req api.StartRequest) (api.StartResponse, error) {
	var resp api.StartResponse
	err := postJSON(ctx, c.opts, c.baseURL+"/api/interviews/live/start", req, &resp)
	if err != nil {
		return api.StartResponse{}, fmt.Errorf("client: start interview: %w", err)
	}
	return resp, nil
}

// SubmitAnswer implements api.InterviewService.
func (c *Interview) SubmitAnswer(ctx context.Context, id int64, answer string) (api.SubmitResponse, error) {
	var resp api.SubmitResponse
	url := fmt.Sprintf("%s/api/interviews/live/%d/submit", c.baseURL, id)
	err := postJSON(ctx, c.opts, url, api.SubmitRequest{Answer: answer}, &resp)
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("client: submit answer: %w", err)
	}
	return resp, nil
}

// End implements api.InterviewService.
func (c *Interview) End(ctx context.Context, id int64) (api.EndResponse, error) {
	var resp api.EndResponse
	url := fmt.Sprintf("%s/api/interviews/live/%d/end", c.baseURL, id)
	err := postJSON(ctx, c.opts, url, nil, &resp)
	if err != nil {
		return api.EndResponse{}, fmt.Errorf("client: end interview: %w", err)
	}
	return resp, nil
}
