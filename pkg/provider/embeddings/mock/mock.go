// Package mock provides a test double for the embeddings.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
)

// Provider is a mock implementation of embeddings.Provider. The zero value
// returns empty vectors and no errors.
type Provider struct {
	mu sync.Mutex

	// EmbedResult is returned by Embed.
	EmbedResult []float32

	// EmbedErr, if non-nil, is returned as the error from Embed and from
	// EmbedBatch.
	EmbedErr error

	// EmbedBatchResult is returned by EmbedBatch when non-nil; otherwise
	// EmbedBatch returns one copy of EmbedResult per input text.
	EmbedBatchResult [][]float32

	// DimensionsValue is returned by Dimensions. Defaults to
	// len(EmbedResult).
	DimensionsValue int

	// Model is returned by ModelID. Defaults to "mock-embed".
	Model string

	// EmbedTexts records the text of every Embed call in order.
	EmbedTexts []string

	// BatchTexts records the texts of every EmbedBatch call in order.
	BatchTexts [][]string
}

var _ embeddings.Provider = (*Provider)(nil)

// Embed implements embeddings.Provider.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EmbedTexts = append(p.EmbedTexts, text)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	return p.EmbedResult, nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]string, len(texts))
	copy(cp, texts)
	p.BatchTexts = append(p.BatchTexts, cp)
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	if p.EmbedBatchResult != nil {
		return p.EmbedBatchResult, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = p.EmbedResult
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	if p.DimensionsValue != 0 {
		return p.DimensionsValue
	}
	return len(p.EmbedResult)
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	if p.Model == "" {
		return "mock-embed"
	}
	return p.Model
}
