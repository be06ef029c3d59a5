// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify prompt construction and to feed
// controlled completions without a live backend:
//
//	p := &mock.Provider{Response: &llm.Response{Content: `{"question":"..."}`}}
package mock

import (
	"context"
	"sync"

	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Req is the Request passed to Complete.
	Req llm.Request
}

// Provider is a mock implementation of llm.Provider.
// Zero values for response fields cause Complete to return (nil, nil).
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete. Consumed from Responses first when
	// that slice is non-empty.
	Response *llm.Response

	// Responses, when non-empty, is consumed one per Complete call; after
	// exhaustion the last element is repeated.
	Responses []*llm.Response

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Model is returned by ModelID. Defaults to "mock".
	Model string

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall
}

var _ llm.Provider = (*Provider)(nil)

// Complete implements llm.Provider.
func (p *Provider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.Calls)
	p.Calls = append(p.Calls, CompleteCall{Req: req})

	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Responses) > 0 {
		if n >= len(p.Responses) {
			n = len(p.Responses) - 1
		}
		return p.Responses[n], nil
	}
	return p.Response, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string {
	if p.Model == "" {
		return "mock"
	}
	return p.Model
}
