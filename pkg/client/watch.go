package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Watch subscribes to the live transcript feed for session id and returns a
// channel of [api.TranscriptEvent]. The channel is closed when the session
// ends, the server closes the feed, or ctx is cancelled.
//
// Callers must drain the channel to avoid leaking the reader goroutine.
func (c *Interview) Watch(ctx context.Context, id int64) (<-chan api.TranscriptEvent, error) {
	wsURL := fmt.Sprintf("%s/api/interviews/live/%d/watch", httpToWS(c.baseURL), id)

	var header http.Header
	if c.opts.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + c.opts.token}}
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPClient: c.opts.httpClient,
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("client: dial watch feed: %w", err)
	}

	events := make(chan api.TranscriptEvent, 16)
	go func() {
		defer close(events)
		defer conn.Close(websocket.StatusNormalClosure, "watch done")

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					slog.Debug("watch feed closed", "session_id", id, "err", err)
				}
				return
			}
			var ev api.TranscriptEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				slog.Warn("watch feed: malformed event", "session_id", id, "err", err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Type == api.EventEnded {
				return
			}
		}
	}()
	return events, nil
}

// httpToWS rewrites an http(s) base URL to the ws(s) scheme.
func httpToWS(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return baseURL
}
