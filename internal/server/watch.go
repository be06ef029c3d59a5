package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/candidly-dev/candidly/internal/observe"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

// handleWatch upgrades to a websocket and streams the session's transcript
// feed: a replay of the stored turns first, then live events until the
// session ends. Events are delivered at least once; (type, seq) identifies
// duplicates.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The ownership check runs before the upgrade so a rejected watcher gets
	// a proper HTTP status instead of a websocket close code.
	turns, err := s.cfg.Interviews.Transcript(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.cfg.Store.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Subscribe before replaying so no event published during the replay is
	// lost; replayed entries are skipped on the live stream by seq.
	events, cancel := s.hub.Subscribe(id)
	defer cancel()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "watch done")

	ctx := r.Context()
	replayed := 0
	for _, t := range turns {
		if err := wsjson.Write(ctx, conn, api.TranscriptEvent{
			Type:    api.EventEntry,
			Seq:     t.TurnIndex,
			Role:    t.Role,
			Content: t.Content,
		}); err != nil {
			return
		}
		if t.Evaluation != nil {
			if err := wsjson.Write(ctx, conn, api.TranscriptEvent{
				Type:       api.EventScore,
				Seq:        t.TurnIndex,
				Evaluation: t.Evaluation,
			}); err != nil {
				return
			}
		}
		replayed = t.TurnIndex + 1
	}

	if sess.Status == store.StatusEnded {
		_ = wsjson.Write(ctx, conn, api.TranscriptEvent{Type: api.EventEnded, Seq: len(turns)})
		return
	}

	// Drain client frames so pings are answered and closure is noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clientGone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == api.EventEntry && ev.Seq < replayed {
				continue
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					observe.Logger(ctx).Debug("watch write failed", "session_id", id, "err", err)
				}
				return
			}
			if ev.Type == api.EventEnded {
				return
			}
		}
	}
}
