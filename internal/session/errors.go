package session

import "errors"

// Sentinel errors returned by [Orchestrator] operations. Start and submit
// failures require user-visible handling (show a message, offer a retry);
// end failures are informational because the local transition to Ended
// happens regardless.
var (
	// ErrStartFailed wraps an interview-service start rejection or transport
	// error. The session remains NotStarted and may be retried.
	ErrStartFailed = errors.New("interview start failed")

	// ErrSubmitFailed wraps an interview-service submit failure. The turn did
	// not advance; the candidate's answer entry is retained and a new answer
	// may be submitted.
	ErrSubmitFailed = errors.New("answer submit failed")

	// ErrEndFailed wraps a remote end failure. The session is Ended locally
	// regardless.
	ErrEndFailed = errors.New("interview end failed")

	// ErrAlreadyStarted is returned by Start on a session that is not in the
	// NotStarted state.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotActive is returned by SubmitAnswer and End before Start.
	ErrNotActive = errors.New("session not active")

	// ErrSessionEnded is returned by operations on an ended session.
	ErrSessionEnded = errors.New("session has ended")

	// ErrEmptyAnswer is returned by SubmitAnswer for empty answer text.
	ErrEmptyAnswer = errors.New("answer text is empty")

	// ErrSubmitInFlight is returned by SubmitAnswer while a previous submit's
	// interview call is still outstanding. Overlapping submits are rejected
	// to keep the question index monotonic.
	ErrSubmitInFlight = errors.New("a submit is already in flight")
)
