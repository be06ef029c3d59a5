// Package embeddings defines the Provider interface for text-embedding backends.
//
// Candidly embeds interview questions and candidate answers into dense float32
// vectors so the question store can rank bank questions by semantic similarity
// to a resume or a target role. Backends include the OpenAI embeddings API and
// a local Ollama server.
//
// Implementations must be safe for concurrent use.
package embeddings

import (
	"context"
	"math"
)

// Provider is the abstraction over any text-embedding backend.
//
// Every vector produced by a single Provider instance has the same length,
// reported by Dimensions. Vectors from different providers (or different
// models) live in different spaces and must not be compared against each
// other.
type Provider interface {
	// Embed computes the embedding vector for a single text. The returned
	// slice has length Dimensions(). Text is passed through verbatim; any
	// model-specific prefixing is the caller's job.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one backend call. The result has the same
	// length and order as texts. On error no partial results are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length for this provider's model.
	Dimensions() int

	// ModelID returns the backend model identifier, for logging and for
	// guarding against mixing vector spaces in storage.
	ModelID() string
}

// CosineDistance returns 1 - cosine similarity of a and b, so that 0 is
// identical direction and 2 is opposite. Mismatched-length or zero vectors
// return 2, which sorts them last in a nearest-first ranking.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
