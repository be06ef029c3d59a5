package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrExhausted is returned when every entry in a [Chain] fails or has an open
// breaker.
var ErrExhausted = errors.New("all backends failed")

// chainEntry pairs a backend with its dedicated breaker.
type chainEntry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Chain tries a sequence of backends of the same type in order, skipping any
// whose breaker is open. The first entry is the preferred backend; later
// entries are fallbacks.
//
// Chain is safe for concurrent use once construction (Add calls) is done.
type Chain[T any] struct {
	entries []chainEntry[T]
	cfg     BreakerConfig
}

// NewChain creates a [Chain] whose per-entry breakers share cfg (the Name
// field is replaced with each entry's name).
func NewChain[T any](cfg BreakerConfig) *Chain[T] {
	return &Chain[T]{cfg: cfg}
}

// Add appends a backend to the chain. Backends are tried in insertion order.
func (c *Chain[T]) Add(name string, backend T) *Chain[T] {
	cfg := c.cfg
	cfg.Name = name
	c.entries = append(c.entries, chainEntry[T]{
		name:    name,
		value:   backend,
		breaker: NewBreaker(cfg),
	})
	return c
}

// Len returns the number of registered backends.
func (c *Chain[T]) Len() int {
	return len(c.entries)
}

// Do runs fn against each healthy backend in order until one succeeds.
// If every entry fails, the last error is wrapped with [ErrExhausted].
func (c *Chain[T]) Do(fn func(T) error) error {
	var lastErr error
	for i := range c.entries {
		e := &c.entries[i]
		err := e.breaker.Do(func() error { return fn(e.value) })
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, breaker open", "backend", e.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", e.name, "error", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// DoWithResult is [Chain.Do] for functions that return a value. Package-level
// because methods cannot introduce type parameters.
func DoWithResult[T, R any](c *Chain[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range c.entries {
		e := &c.entries[i]
		var result R
		err := e.breaker.Do(func() error {
			var innerErr error
			result, innerErr = fn(e.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, breaker open", "backend", e.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", e.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}
