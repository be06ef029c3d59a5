// Package session implements the live interview session core: the
// [Transcript] log and the [Orchestrator] state machine that drives one
// session's lifecycle against the remote interview and evaluation services.
//
// Each candidate answer fans out into two independent remote calls: the
// interview submit (which advances the conversation and is awaited) and the
// answer evaluation (which is best-effort and merged back into the transcript
// whenever it arrives). The two calls race and may fail independently; the
// transcript's fixed sequence indices are what lets a late evaluation land on
// the correct entry even after later turns have completed, and lets stale
// results be dropped silently after the session ends.
//
// An Orchestrator owns exactly one session. To start over after End, create
// a new Orchestrator; the old transcript is discarded with the old instance.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Lifecycle is the session state. Transitions are one-directional:
// NotStarted → Active → Ended.
type Lifecycle int

const (
	NotStarted Lifecycle = iota
	Active
	Ended
)

// String returns the human-readable name of the state.
func (l Lifecycle) String() string {
	switch l {
	case NotStarted:
		return "not-started"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// StartParams carries everything needed to begin a session.
type StartParams struct {
	// ResumeText personalises the generated questions.
	ResumeText string

	// TargetRole is the role being practised for. Required.
	TargetRole string

	// Difficulty defaults to medium when empty.
	Difficulty api.Difficulty

	// Persona defaults to friendly when empty.
	Persona api.Persona

	// MaxQuestions caps the number of distinct questions (0 = server default).
	MaxQuestions int
}

// View is a read-only snapshot of the session's lifecycle state for the
// presentation layer.
type View struct {
	State           Lifecycle
	SessionID       int64
	TargetRole      string
	Persona         api.Persona
	PendingQuestion string
	QuestionIndex   int
}

// Orchestrator drives one live interview session. It owns the session
// identity, the lifecycle state, and the [Transcript]; no other component
// mutates them. All exported methods are safe for concurrent use.
type Orchestrator struct {
	interview api.InterviewService
	evaluator api.EvaluationService

	mu         sync.Mutex
	state      Lifecycle
	id         int64
	targetRole string
	persona    api.Persona
	pendingQ   string
	qIndex     int
	submitting bool
	transcript *Transcript

	// evals tracks in-flight evaluation goroutines so that tests and
	// graceful shutdown can wait for them to settle.
	evals sync.WaitGroup
}

// New creates an Orchestrator in the NotStarted state.
//
// evaluator may be nil, in which case answers are never scored; the
// conversation still advances normally.
func New(interview api.InterviewService, evaluator api.EvaluationService) *Orchestrator {
	return &Orchestrator{
		interview:  interview,
		evaluator:  evaluator,
		transcript: NewTranscript(),
	}
}

// Start begins the session. On success the transcript is seeded with the
// first interviewer question and the session becomes Active. On failure the
// session remains NotStarted with an untouched transcript, and the returned
// error wraps [ErrStartFailed]; Start may be called again.
func (o *Orchestrator) Start(ctx context.Context, p StartParams) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case Active:
		return ErrAlreadyStarted
	case Ended:
		return ErrSessionEnded
	}
	if p.TargetRole == "" {
		return fmt.Errorf("session: target role is required")
	}
	if p.Persona == "" {
		p.Persona = api.PersonaFriendly
	}
	if p.Difficulty == "" {
		p.Difficulty = api.DifficultyMedium
	}

	resp, err := o.interview.Start(ctx, api.StartRequest{
		ResumeText:   p.ResumeText,
		TargetRole:   p.TargetRole,
		Difficulty:   p.Difficulty,
		PersonaMode:  p.Persona,
		MaxQuestions: p.MaxQuestions,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	if _, err := o.transcript.Append(RoleAssistant, resp.FirstQuestion); err != nil {
		return fmt.Errorf("%w: seed transcript: %v", ErrStartFailed, err)
	}

	o.state = Active
	o.id = resp.ID
	o.targetRole = p.TargetRole
	o.persona = p.Persona
	o.pendingQ = resp.FirstQuestion
	o.qIndex = resp.QuestionIndex

	slog.Info("interview session started",
		"session_id", resp.ID,
		"target_role", p.TargetRole,
		"persona", p.Persona,
	)
	return nil
}

// SubmitAnswer records the candidate's answer to the pending question and
// advances the conversation.
//
// The answer entry is appended first, then two remote calls are issued
// concurrently: the interview submit, which SubmitAnswer awaits, and the
// answer evaluation, which runs in the background and attaches its score to
// the answer entry whenever it resolves. A failed evaluation leaves the entry
// unscored and is not an error for the turn.
//
// On interview failure the returned error wraps [ErrSubmitFailed]: the
// pending question and question index are unchanged so the candidate can
// answer again, and the already-appended answer entry is retained. A late
// evaluation for that entry still attaches by sequence index.
//
// While a previous submit's interview call is outstanding, SubmitAnswer
// returns [ErrSubmitInFlight] rather than queueing.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, text string) error {
	o.mu.Lock()
	switch o.state {
	case NotStarted:
		o.mu.Unlock()
		return ErrNotActive
	case Ended:
		o.mu.Unlock()
		return ErrSessionEnded
	}
	if text == "" {
		o.mu.Unlock()
		return ErrEmptyAnswer
	}
	if o.submitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}

	seq, err := o.transcript.Append(RoleUser, text)
	if err != nil {
		o.mu.Unlock()
		return err
	}

	id := o.id
	question := o.pendingQ
	role := o.targetRole
	transcript := o.transcript
	o.submitting = true
	o.mu.Unlock()

	// Fire the evaluation without waiting for it. The call must outlive this
	// turn even if the session ends first, so it is detached from the
	// submit's cancellation. AttachScore makes the result merge safe no
	// matter when it lands.
	if o.evaluator != nil {
		o.evals.Add(1)
		go func() {
			defer o.evals.Done()
			ev, err := o.evaluator.Evaluate(context.WithoutCancel(ctx), api.EvaluationRequest{
				Question:   question,
				Answer:     text,
				TargetRole: role,
			})
			if err != nil {
				slog.Debug("answer evaluation failed (entry stays unscored)",
					"session_id", id, "seq", seq, "err", err)
				return
			}
			transcript.AttachScore(seq, ev)
		}()
	}

	resp, submitErr := o.interview.SubmitAnswer(ctx, id, text)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.submitting = false

	if submitErr != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, submitErr)
	}
	if o.state != Active {
		// Ended while the call was in flight; drop the advancement.
		return ErrSessionEnded
	}

	if _, err := o.transcript.Append(RoleAssistant, resp.NextQuestion); err != nil {
		return fmt.Errorf("%w: record next question: %v", ErrSubmitFailed, err)
	}
	o.pendingQ = resp.NextQuestion
	o.qIndex = resp.QuestionIndex
	return nil
}

// End closes the session. The local transition to Ended — clearing the
// pending question and sealing the transcript against late evaluation
// results — always happens, even when the remote end call fails; a degraded
// backend must not trap the candidate in a session. A remote failure is
// reported as an error wrapping [ErrEndFailed] for informational display
// only.
func (o *Orchestrator) End(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case NotStarted:
		o.mu.Unlock()
		return ErrNotActive
	case Ended:
		o.mu.Unlock()
		return ErrSessionEnded
	}
	id := o.id
	o.state = Ended
	o.pendingQ = ""
	o.transcript.Seal()
	o.mu.Unlock()

	if _, err := o.interview.End(ctx, id); err != nil {
		slog.Warn("remote interview end failed; session ended locally",
			"session_id", id, "err", err)
		return fmt.Errorf("%w: %v", ErrEndFailed, err)
	}

	slog.Info("interview session ended", "session_id", id)
	return nil
}

// View returns the current lifecycle state for presentation.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return View{
		State:           o.state,
		SessionID:       o.id,
		TargetRole:      o.targetRole,
		Persona:         o.persona,
		PendingQuestion: o.pendingQ,
		QuestionIndex:   o.qIndex,
	}
}

// Snapshot returns the transcript entries in append order.
func (o *Orchestrator) Snapshot() []TranscriptEntry {
	return o.transcript.Snapshot()
}

// WaitEvaluations blocks until every in-flight evaluation call has settled.
// Useful before rendering a final summary and in tests; the orchestrator
// itself never requires it.
func (o *Orchestrator) WaitEvaluations() {
	o.evals.Wait()
}
