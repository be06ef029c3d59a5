package api

// TranscriptEventType discriminates the messages on a session's watch feed.
type TranscriptEventType string

const (
	// EventEntry announces a newly appended transcript entry.
	EventEntry TranscriptEventType = "entry"

	// EventScore announces an evaluation attached to an earlier entry.
	EventScore TranscriptEventType = "score"

	// EventEnded announces the end of the session; it is the final event.
	EventEnded TranscriptEventType = "ended"
)

// TranscriptEvent is one message on the live transcript watch feed
// (GET /api/interviews/live/{id}/watch, websocket).
type TranscriptEvent struct {
	Type TranscriptEventType `json:"type"`

	// Seq is the transcript index the event refers to. For EventEnded it is
	// the final transcript length.
	Seq int `json:"seq"`

	// Role and Content are set for EventEntry.
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// Evaluation is set for EventScore.
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}
