package config

import (
	"errors"
	"testing"

	"github.com/candidly-dev/candidly/pkg/provider/embeddings"
	embmock "github.com/candidly-dev/candidly/pkg/provider/embeddings/mock"
	"github.com/candidly-dev/candidly/pkg/provider/llm"
	llmmock "github.com/candidly-dev/candidly/pkg/provider/llm/mock"
)

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	for _, l := range []LogLevel{"", "trace", "verbose"} {
		if l.IsValid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestRegistryCreateLLM(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterLLM("mock", func(entry ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{Model: entry.Model}, nil
	})

	p, err := r.CreateLLM(ProviderEntry{Name: "mock", Model: "test-model"})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p.ModelID() != "test-model" {
		t.Errorf("ModelID = %q, want test-model", p.ModelID())
	}
}

func TestRegistryCreateLLMUnregistered(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().CreateLLM(ProviderEntry{Name: "nope"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistryCreateEmbeddings(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterEmbeddings("mock", func(ProviderEntry) (embeddings.Provider, error) {
		return &embmock.Provider{DimensionsValue: 8}, nil
	})

	p, err := r.CreateEmbeddings(ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateEmbeddings: %v", err)
	}
	if p.Dimensions() != 8 {
		t.Errorf("Dimensions = %d, want 8", p.Dimensions())
	}
}

func TestRegistryOverwrite(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.RegisterLLM("mock", func(ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{Model: "first"}, nil
	})
	r.RegisterLLM("mock", func(ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{Model: "second"}, nil
	})

	p, err := r.CreateLLM(ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p.ModelID() != "second" {
		t.Errorf("ModelID = %q, want second (later registration wins)", p.ModelID())
	}
}
