package session

import (
	"fmt"
	"sync"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	// RoleAssistant marks interviewer questions.
	RoleAssistant Role = "assistant"

	// RoleUser marks candidate answers.
	RoleUser Role = "user"
)

// TranscriptEntry is one turn half in the conversation log. Content is
// immutable once appended; the only permitted mutation is attaching an
// evaluation to a user entry, exactly once.
type TranscriptEntry struct {
	// Seq is the entry's fixed position in the transcript, assigned at append
	// time. It is the reconciliation key for late-arriving evaluations and is
	// never reused or reassigned.
	Seq int

	Role    Role
	Content string

	// Evaluation holds the answer assessment once one has arrived. Nil until
	// then, and always nil on assistant entries. Only Relevance is consumed
	// by the session core; the other fields pass through to presentation.
	Evaluation *api.Evaluation
}

// Transcript is the ordered, append-only conversation log owned by one
// [Orchestrator]. It is safe for concurrent use: the orchestrator appends
// from its own call path while evaluation goroutines attach scores.
type Transcript struct {
	mu      sync.Mutex
	entries []TranscriptEntry
	sealed  bool
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an entry at the end and returns its sequence index.
//
// User entries must have non-empty content; assistant entries originate from
// the interview service and are appended verbatim. Appending to a sealed
// transcript is an error.
func (t *Transcript) Append(role Role, content string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return 0, fmt.Errorf("transcript: append after session end")
	}
	if role == RoleUser && content == "" {
		return 0, fmt.Errorf("transcript: %w", ErrEmptyAnswer)
	}

	seq := len(t.entries)
	t.entries = append(t.entries, TranscriptEntry{
		Seq:     seq,
		Role:    role,
		Content: content,
	})
	return seq, nil
}

// AttachScore sets the evaluation on the user entry at seq. It reports
// whether the evaluation was recorded.
//
// AttachScore never fails: a missing index, an assistant entry, an
// already-scored entry, or a sealed transcript all make it a silent no-op.
// This is what lets late evaluation responses — arriving after a failed turn,
// after the session ended, or after the orchestrator was replaced — be
// dropped without any coordination.
func (t *Transcript) AttachScore(seq int, eval api.Evaluation) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed || seq < 0 || seq >= len(t.entries) {
		return false
	}
	entry := &t.entries[seq]
	if entry.Role != RoleUser || entry.Evaluation != nil {
		// First write wins; assistant entries are never scored.
		return false
	}
	entry.Evaluation = &eval
	return true
}

// Seal closes the transcript to all further mutation. Called when the
// session ends so that in-flight evaluation results are discarded.
func (t *Transcript) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Snapshot returns a copy of all entries in append order. The copy is safe to
// read while the session continues; attached evaluations are copied by value.
func (t *Transcript) Snapshot() []TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	for i := range out {
		if out[i].Evaluation != nil {
			ev := *out[i].Evaluation
			out[i].Evaluation = &ev
		}
	}
	return out
}
