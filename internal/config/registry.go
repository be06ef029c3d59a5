package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// factory builds a provider of type T from its config entry.
type factory[T any] func(ProviderEntry) (T, error)

// kindRegistry holds the factories for one provider kind.
type kindRegistry[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]factory[T]
}

func newKindRegistry[T any](kind string) *kindRegistry[T] {
	return &kindRegistry[T]{kind: kind, factories: make(map[string]factory[T])}
}

// register overwrites any previous registration under the same name.
func (k *kindRegistry[T]) register(name string, f factory[T]) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.factories[name] = f
}

func (k *kindRegistry[T]) create(entry ProviderEntry) (T, error) {
	k.mu.RLock()
	f, ok := k.factories[entry.Name]
	k.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, k.kind, entry.Name)
	}
	return f(entry)
}

// Registry maps provider names to their constructor functions for each
// provider kind. It is safe for concurrent use.
type Registry struct {
	llm        *kindRegistry[llm.Provider]
	embeddings *kindRegistry[embeddings.Provider]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:        newKindRegistry[llm.Provider]("llm"),
		embeddings: newKindRegistry[embeddings.Provider]("embeddings"),
	}
}

// RegisterLLM registers a completion provider factory under name.
func (r *Registry) RegisterLLM(name string, f func(ProviderEntry) (llm.Provider, error)) {
	r.llm.register(name, f)
}

// RegisterEmbeddings registers an embeddings provider factory under name.
func (r *Registry) RegisterEmbeddings(name string, f func(ProviderEntry) (embeddings.Provider, error)) {
	r.embeddings.register(name, f)
}

// CreateLLM instantiates the completion provider registered under entry.Name.
// Returns [ErrProviderNotRegistered] when the name is unknown.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	return r.llm.create(entry)
}

// CreateEmbeddings instantiates the embeddings provider registered under
// entry.Name.
func (r *Registry) CreateEmbeddings(entry ProviderEntry) (embeddings.Provider, error) {
	return r.embeddings.create(entry)
}
