// Package mock provides test doubles for the api.InterviewService and
// api.EvaluationService interfaces.
//
// Zero values for response fields cause methods to return zero values and nil
// errors. Set Err fields to inject failures, or the Func fields to take full
// control of a call (useful for delaying an evaluation response until after a
// later turn has completed).
package mock

import (
	"context"
	"sync"

	"github.com/candidly-dev/candidly/pkg/api"
)

// SubmitCall records a single invocation of SubmitAnswer.
type SubmitCall struct {
	ID     int64
	Answer string
}

// InterviewService is a mock implementation of api.InterviewService.
type InterviewService struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// StartResponse is returned by Start when StartFunc is nil.
	StartResponse api.StartResponse

	// StartErr, if non-nil, is returned as the error from Start.
	StartErr error

	// SubmitResponses is consumed one per SubmitAnswer call. When exhausted,
	// the last element is repeated. Ignored when SubmitFunc is set.
	SubmitResponses []api.SubmitResponse

	// SubmitErr, if non-nil, is returned as the error from SubmitAnswer.
	SubmitErr error

	// EndResponse is returned by End.
	EndResponse api.EndResponse

	// EndErr, if non-nil, is returned as the error from End.
	EndErr error

	// --- Full-control hooks ---

	// StartFunc, when set, replaces the canned Start behaviour.
	StartFunc func(ctx context.Context, req api.StartRequest) (api.StartResponse, error)

	// SubmitFunc, when set, replaces the canned SubmitAnswer behaviour.
	SubmitFunc func(ctx context.Context, id int64, answer string) (api.SubmitResponse, error)

	// --- Call records (read after test) ---

	// StartCalls records every StartRequest passed to Start.
	StartCalls []api.StartRequest

	// SubmitCalls records every invocation of SubmitAnswer in order.
	SubmitCalls []SubmitCall

	// EndCalls records the session ids passed to End.
	EndCalls []int64
}

var _ api.InterviewService = (*InterviewService)(nil)

// Start implements api.InterviewService.
func (m *InterviewService) Start(ctx context.Context, req api.StartRequest) (api.StartResponse, error) {
	m.mu.Lock()
	m.StartCalls = append(m.StartCalls, req)
	fn := m.StartFunc
	resp, err := m.StartResponse, m.StartErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// SubmitAnswer implements api.InterviewService.
func (m *InterviewService) SubmitAnswer(ctx context.Context, id int64, answer string) (api.SubmitResponse, error) {
	m.mu.Lock()
	n := len(m.SubmitCalls)
	m.SubmitCalls = append(m.SubmitCalls, SubmitCall{ID: id, Answer: answer})
	fn := m.SubmitFunc
	var resp api.SubmitResponse
	if len(m.SubmitResponses) > 0 {
		if n >= len(m.SubmitResponses) {
			n = len(m.SubmitResponses) - 1
		}
		resp = m.SubmitResponses[n]
	}
	err := m.SubmitErr
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id, answer)
	}
	return resp, err
}

// End implements api.InterviewService.
func (m *InterviewService) End(ctx context.Context, id int64) (api.EndResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndCalls = append(m.EndCalls, id)
	return m.EndResponse, m.EndErr
}

// EvaluateCall records a single invocation of Evaluate.
type EvaluateCall struct {
	Req api.EvaluationRequest
}

// EvaluationService is a mock implementation of api.EvaluationService.
type EvaluationService struct {
	mu sync.Mutex

	// Evaluation is returned by Evaluate when EvaluateFunc is nil.
	Evaluation api.Evaluation

	// Err, if non-nil, is returned as the error from Evaluate.
	Err error

	// EvaluateFunc, when set, replaces the canned behaviour. Use it to block
	// until a signal channel closes when testing late-arriving evaluations.
	EvaluateFunc func(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error)

	// Calls records every invocation of Evaluate in order.
	Calls []EvaluateCall
}

var _ api.EvaluationService = (*EvaluationService)(nil)

// Evaluate implements api.EvaluationService.
func (m *EvaluationService) Evaluate(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, EvaluateCall{Req: req})
	fn := m.EvaluateFunc
	ev, err := m.Evaluation, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return ev, err
}
