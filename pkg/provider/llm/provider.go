// Package llm defines the Provider interface for Large Language Model
// backends.
//
// Candidly uses an LLM for two separate concerns: generating the next
// interviewer question and scoring candidate answers. Both are plain
// completion calls that expect a structured (JSON) reply, so the Provider
// surface is deliberately small — no tool calling, no streaming.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly.
package llm

import "context"

// Message is a single message in a conversation history.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Request carries everything the model needs to produce a reply. At minimum
// Messages must be non-empty.
type Request struct {
	// Messages is the ordered conversation history. The last message
	// typically drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation history. Providers that lack a dedicated system slot
	// prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means the provider default.
	MaxTokens int

	// ForceJSON asks the backend to emit a single JSON object. Best effort:
	// providers without a response-format control ignore it, so callers must
	// still parse defensively.
	ForceJSON bool
}

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit and differ between providers for the same text.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the model's full reply.
type Response struct {
	// Content is the text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Returns an error if the request fails or ctx is cancelled first.
	Complete(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the backend's model identifier (e.g. "gpt-4o-mini"),
	// used for logging and metrics attributes.
	ModelID() string
}
