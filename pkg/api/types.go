// Package api defines the wire contracts shared between the Candidly server
// and its clients: request/response types for the live interview and answer
// evaluation endpoints, and the service interfaces the session orchestrator
// consumes.
//
// The JSON field names are the canonical wire format; both the server handlers
// and the HTTP clients in [github.com/candidly-dev/candidly/pkg/client]
// marshal against these types.
package api

import "context"

// Persona selects the interviewer's personality mode. It affects prompt
// construction on the server and presentation on the client, never turn
// sequencing.
type Persona string

const (
	PersonaFriendly Persona = "friendly"
	PersonaStrict   Persona = "strict"
	PersonaStress   Persona = "stress"
)

// IsValid reports whether p is a recognised persona.
func (p Persona) IsValid() bool {
	switch p {
	case PersonaFriendly, PersonaStrict, PersonaStress:
		return true
	}
	return false
}

// Difficulty selects how demanding the generated questions are.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// StartRequest begins a new live interview session.
type StartRequest struct {
	// ResumeText is pasted resume content used to personalise questions.
	ResumeText string `json:"resume_text"`

	// TargetRole is the role the candidate is practising for
	// (e.g. "Backend Engineer"). Immutable for the session's lifetime.
	TargetRole string `json:"target_role"`

	// Difficulty defaults to medium when empty.
	Difficulty Difficulty `json:"difficulty,omitempty"`

	// PersonaMode defaults to friendly when empty.
	PersonaMode Persona `json:"personality_mode,omitempty"`

	// MaxQuestions caps the number of distinct questions. Zero means the
	// server default.
	MaxQuestions int `json:"max_questions,omitempty"`
}

// StartResponse is returned by a successful session start.
type StartResponse struct {
	// ID is the server-assigned session identifier.
	ID int64 `json:"id"`

	// FirstQuestion is the opening interviewer question.
	FirstQuestion string `json:"first_question"`

	// QuestionIndex is the index of the first question, normally 0.
	QuestionIndex int `json:"question_index"`
}

// SubmitRequest carries one candidate answer.
type SubmitRequest struct {
	Answer string `json:"answer"`
}

// SubmitResponse is returned by a successful answer submission.
type SubmitResponse struct {
	ID int64 `json:"id"`

	// NextQuestion is the interviewer's next question, which may be a
	// follow-up on the answer just given.
	NextQuestion string `json:"next_question"`

	// QuestionIndex is the session's question counter after this turn.
	// Follow-ups repeat the previous index; fresh questions advance it by one.
	QuestionIndex int `json:"question_index"`

	// IsFollowUp reports whether NextQuestion probes the same topic again.
	IsFollowUp bool `json:"is_follow_up"`
}

// EndResponse acknowledges a session end.
type EndResponse struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	TotalTurns int    `json:"total_turns"`
	EndedAt    string `json:"ended_at,omitempty"`
}

// EvaluationRequest asks for a quality assessment of a single
// question/answer pair.
type EvaluationRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	TargetRole string `json:"target_role,omitempty"`
}

// Evaluation is the scored assessment of one answer. All metric values are in
// [0, 100]. The session core consumes only Relevance; the remaining fields
// pass through to the presentation layer untouched.
type Evaluation struct {
	Relevance    float64 `json:"relevance"`
	Depth        float64 `json:"depth"`
	Clarity      float64 `json:"clarity"`
	Confidence   float64 `json:"confidence"`
	OverallScore float64 `json:"overall_score"`
	Feedback     string  `json:"feedback,omitempty"`
}

// InterviewService is the remote interview backend as seen by the session
// orchestrator: start a session, trade answers for questions, end it.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation. Each method performs a single attempt; retry policy belongs
// to the caller.
type InterviewService interface {
	// Start creates a session and returns its id and opening question.
	Start(ctx context.Context, req StartRequest) (StartResponse, error)

	// SubmitAnswer records answer for session id and returns the next question.
	SubmitAnswer(ctx context.Context, id int64, answer string) (SubmitResponse, error)

	// End closes the session. Ending an already-ended session is an error.
	End(ctx context.Context, id int64) (EndResponse, error)
}

// EvaluationService scores a single question/answer pair. It is an
// independent backend from [InterviewService] and may be slower or
// unavailable; callers treat it as best-effort.
type EvaluationService interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (Evaluation, error)
}
