package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/internal/observe"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// evaluateTimeout bounds one background scoring call.
const evaluateTimeout = 60 * time.Second

// subscriberBuffer is the per-subscriber event queue depth. A subscriber
// that falls further behind than this is dropped.
const subscriberBuffer = 64

// Hub fans transcript events out to watch-feed subscribers and runs
// asynchronous answer scoring. It implements [interview.TurnSink]: the
// interview service reports every recorded turn, the hub converts them to
// [api.TranscriptEvent] values, and candidate answers additionally trigger a
// background evaluation whose result is attached to the stored turn and
// published as a score event.
type Hub struct {
	sessions  store.SessionStore
	evaluator api.EvaluationService
	metrics   *observe.Metrics

	mu     sync.Mutex
	feeds  map[int64]*feed
	closed bool

	// scoring tracks in-flight evaluation goroutines for Close.
	scoring sync.WaitGroup
}

var _ interview.TurnSink = (*Hub)(nil)

type feed struct {
	subscribers map[*subscriber]struct{}

	// lastQuestion is the most recent interviewer question, paired with the
	// next candidate answer for scoring.
	lastQuestion string
}

type subscriber struct {
	events chan api.TranscriptEvent
}

// NewHub creates a hub. A nil evaluator disables answer scoring.
func NewHub(sessions store.SessionStore, evaluator api.EvaluationService, metrics *observe.Metrics) *Hub {
	return &Hub{
		sessions:  sessions,
		evaluator: evaluator,
		metrics:   metrics,
		feeds:     map[int64]*feed{},
	}
}

// TurnAppended implements [interview.TurnSink].
func (h *Hub) TurnAppended(ctx context.Context, sess store.Session, turn store.Turn) {
	h.publish(turn.SessionID, api.TranscriptEvent{
		Type:    api.EventEntry,
		Seq:     turn.TurnIndex,
		Role:    turn.Role,
		Content: turn.Content,
	})

	h.mu.Lock()
	f := h.feeds[turn.SessionID]
	var question string
	if f != nil {
		if turn.Role == interview.RoleAssistant {
			f.lastQuestion = turn.Content
		} else {
			question = f.lastQuestion
		}
	}
	closed := h.closed
	h.mu.Unlock()

	if closed || turn.Role != interview.RoleUser || h.evaluator == nil {
		return
	}
	if question == "" {
		question = h.precedingQuestion(ctx, turn)
	}
	if question == "" {
		return
	}

	h.scoring.Add(1)
	go h.score(context.WithoutCancel(ctx), sess, turn, question)
}

// SessionEnded implements [interview.TurnSink]. It emits the final event and
// tears the feed down.
func (h *Hub) SessionEnded(ctx context.Context, sessionID int64, totalTurns int) {
	h.publish(sessionID, api.TranscriptEvent{Type: api.EventEnded, Seq: totalTurns})

	h.mu.Lock()
	if f, ok := h.feeds[sessionID]; ok {
		for sub := range f.subscribers {
			close(sub.events)
		}
		delete(h.feeds, sessionID)
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.ActiveSessions.Add(ctx, -1)
	}
}

// Subscribe attaches a watch-feed subscriber to sessionID. The returned
// channel closes when the session ends or the hub shuts down; call cancel to
// detach early.
func (h *Hub) Subscribe(sessionID int64) (events <-chan api.TranscriptEvent, cancel func()) {
	sub := &subscriber{events: make(chan api.TranscriptEvent, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}
	}
	f, ok := h.feeds[sessionID]
	if !ok {
		f = &feed{subscribers: map[*subscriber]struct{}{}}
		h.feeds[sessionID] = f
	}
	f.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	return sub.events, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		f, ok := h.feeds[sessionID]
		if !ok {
			return
		}
		if _, live := f.subscribers[sub]; live {
			delete(f.subscribers, sub)
			close(sub.events)
		}
		if len(f.subscribers) == 0 {
			delete(h.feeds, sessionID)
		}
	}
}

// Close drops all subscribers and waits for in-flight scoring to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for id, f := range h.feeds {
		for sub := range f.subscribers {
			close(sub.events)
		}
		delete(h.feeds, id)
	}
	h.mu.Unlock()

	h.scoring.Wait()
}

// publish delivers ev to every subscriber of sessionID. Subscribers whose
// buffers are full are dropped rather than blocking the interview path.
func (h *Hub) publish(sessionID int64, ev api.TranscriptEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.feeds[sessionID]
	if !ok {
		return
	}
	for sub := range f.subscribers {
		select {
		case sub.events <- ev:
		default:
			slog.Warn("watch subscriber too slow, dropping", "session_id", sessionID)
			delete(f.subscribers, sub)
			close(sub.events)
		}
	}
}

// score runs one background evaluation and publishes the result.
func (h *Hub) score(ctx context.Context, sess store.Session, turn store.Turn, question string) {
	defer h.scoring.Done()

	ctx, cancel := context.WithTimeout(ctx, evaluateTimeout)
	defer cancel()

	start := time.Now()
	ev, err := h.evaluator.Evaluate(ctx, api.EvaluationRequest{
		Question:   question,
		Answer:     turn.Content,
		TargetRole: sess.TargetRole,
	})
	if h.metrics != nil {
		h.metrics.EvaluationDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		observe.Logger(ctx).Warn("answer scoring failed",
			"session_id", turn.SessionID,
			"seq", turn.TurnIndex,
			"err", err)
		return
	}

	if err := h.sessions.AttachEvaluation(ctx, turn.SessionID, turn.TurnIndex, ev); err != nil {
		observe.Logger(ctx).Warn("attach evaluation failed",
			"session_id", turn.SessionID,
			"seq", turn.TurnIndex,
			"err", err)
	}
	if h.metrics != nil {
		h.metrics.RecordEvaluation(ctx, "server")
	}

	h.publish(turn.SessionID, api.TranscriptEvent{
		Type:       api.EventScore,
		Seq:        turn.TurnIndex,
		Evaluation: &ev,
	})
}

// precedingQuestion recovers the interviewer question preceding turn from
// the store. Needed when no assistant turn has passed through this hub for
// the session, e.g. right after a restart.
func (h *Hub) precedingQuestion(ctx context.Context, turn store.Turn) string {
	turns, err := h.sessions.ListTurns(ctx, turn.SessionID)
	if err != nil {
		return ""
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].TurnIndex < turn.TurnIndex && turns[i].Role == interview.RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}
