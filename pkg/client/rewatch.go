package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Default reconnection parameters for [Interview.WatchResilient].
const (
	defaultMaxRetries = 10
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
)

// RewatchConfig tunes the reconnection behaviour of
// [Interview.WatchResilient]. The zero value selects the defaults.
type RewatchConfig struct {
	// MaxRetries is the number of consecutive failed redial attempts before
	// the feed is abandoned. Defaults to 10 if zero.
	MaxRetries int

	// Backoff is the initial delay between redial attempts. Doubles each
	// attempt up to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on the redial delay. Defaults to 30s
	// if zero.
	MaxBackoff time.Duration

	// OnReconnect is called after each successful redial with the attempt
	// count it took. May be nil.
	OnReconnect func(attempts int)
}

// WatchResilient is [Interview.Watch] with automatic reconnection. When the
// feed drops before the session has ended, it redials with exponential
// backoff and resumes the stream.
//
// The server replays the transcript on every connection, so the feed is
// at-least-once; WatchResilient suppresses the duplicates by sequence index
// and the returned channel carries each entry and score exactly once, in
// order. The channel is closed after the session-ended event, when ctx is
// cancelled, or when MaxRetries consecutive redials fail.
func (c *Interview) WatchResilient(ctx context.Context, id int64, cfg RewatchConfig) (<-chan api.TranscriptEvent, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	inner, err := c.Watch(ctx, id)
	if err != nil {
		return nil, err
	}

	events := make(chan api.TranscriptEvent, 16)
	go c.rewatch(ctx, id, cfg, inner, events)
	return events, nil
}

// rewatch forwards events from successive watch connections into out,
// deduplicating entries and scores by sequence index.
func (c *Interview) rewatch(ctx context.Context, id int64, cfg RewatchConfig, inner <-chan api.TranscriptEvent, out chan<- api.TranscriptEvent) {
	defer close(out)

	nextEntry := 0
	scored := make(map[int]bool)

	for {
		ended := c.forward(ctx, inner, out, &nextEntry, scored)
		if ended || ctx.Err() != nil {
			return
		}

		// Feed dropped mid-session; redial with exponential backoff.
		backoff := cfg.Backoff
		attempt := 0
		for {
			attempt++
			if attempt > cfg.MaxRetries {
				slog.Warn("watch feed abandoned after repeated redial failures",
					"session_id", id, "attempts", cfg.MaxRetries)
				return
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}

			var err error
			inner, err = c.Watch(ctx, id)
			if err == nil {
				break
			}
			slog.Debug("watch redial failed", "session_id", id, "attempt", attempt, "err", err)
			backoff = min(backoff*2, cfg.MaxBackoff)
		}

		slog.Info("watch feed reconnected", "session_id", id, "attempts", attempt)
		if cfg.OnReconnect != nil {
			cfg.OnReconnect(attempt)
		}
	}
}

// forward relays one connection's events, dropping entries below *nextEntry
// and scores already delivered. Reports whether the session ended.
func (c *Interview) forward(ctx context.Context, inner <-chan api.TranscriptEvent, out chan<- api.TranscriptEvent, nextEntry *int, scored map[int]bool) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-inner:
			if !ok {
				return false
			}
			switch ev.Type {
			case api.EventEntry:
				if ev.Seq < *nextEntry {
					continue
				}
				*nextEntry = ev.Seq + 1
			case api.EventScore:
				if scored[ev.Seq] {
					continue
				}
				scored[ev.Seq] = true
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return false
			}
			if ev.Type == api.EventEnded {
				return true
			}
		}
	}
}
