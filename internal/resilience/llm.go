package resilience

import (
	"context"

	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

// LLMChain implements [llm.Provider] with automatic failover across several
// completion backends. Each backend sits behind its own breaker; when the
// preferred backend fails or its breaker is open, the next one is tried.
type LLMChain struct {
	chain *Chain[llm.Provider]
}

var _ llm.Provider = (*LLMChain)(nil)

// NewLLMChain creates an [LLMChain] with primary as the preferred backend.
func NewLLMChain(primary llm.Provider, primaryName string, cfg BreakerConfig) *LLMChain {
	c := NewChain[llm.Provider](cfg)
	c.Add(primaryName, primary)
	return &LLMChain{chain: c}
}

// AddFallback registers an additional completion backend.
func (l *LLMChain) AddFallback(name string, p llm.Provider) {
	l.chain.Add(name, p)
}

// Complete sends the request to the first healthy backend.
func (l *LLMChain) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return DoWithResult(l.chain, func(p llm.Provider) (*llm.Response, error) {
		return p.Complete(ctx, req)
	})
}

// ModelID reports the preferred backend's model. Static metadata does not
// participate in failover.
func (l *LLMChain) ModelID() string {
	if len(l.chain.entries) == 0 {
		return ""
	}
	return l.chain.entries[0].value.ModelID()
}
