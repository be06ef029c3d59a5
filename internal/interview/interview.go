// Package interview generates interviewer questions for live sessions.
//
// An [Engine] produces the next question from the session parameters and the
// conversation so far. [LLMEngine] asks a completion backend and expects a
// strict JSON reply; [BankEngine] draws from a curated question bank and uses
// simple follow-up heuristics, so it works without any AI backend. [Service]
// wires engines, persistence and validation into the full
// [api.InterviewService] surface.
package interview

import (
	"context"
	"errors"

	"github.com/candidly-dev/candidly/pkg/api"
)

// Turn is one transcript message handed to an engine for context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt carries everything an engine may use to pick the next question.
type Prompt struct {
	ResumeText string
	TargetRole string
	Difficulty api.Difficulty
	Persona    api.Persona

	// Transcript is the conversation so far, oldest first, including the
	// candidate's latest answer. Empty when generating the opening question.
	Transcript []Turn

	// QuestionIndex is the zero-based index of the current question.
	QuestionIndex int

	// MaxQuestions bounds the interview length.
	MaxQuestions int

	// LastAnswer is the candidate's most recent answer, nil for the opening
	// question.
	LastAnswer *string
}

// NextQuestion is an engine's output. Follow-ups probe the previous answer
// and do not advance the question index.
type NextQuestion struct {
	Question   string
	IsFollowUp bool
}

// Engine produces the next interviewer question.
type Engine interface {
	NextQuestion(ctx context.Context, p Prompt) (NextQuestion, error)
}

// Persona instruction strings injected into LLM prompts.
const (
	instructionsFriendly = "Be supportive and collaborative. Give short guidance in the question if needed."
	instructionsStrict   = "Be concise, direct, and high-standard. Challenge weak reasoning. No fluff."
	instructionsStress   = "Apply pressure with fast follow-ups and tight constraints. Keep it professional, not abusive."
)

// personaInstructions returns the prompt instructions for mode. Unknown modes
// behave as friendly.
func personaInstructions(mode api.Persona) string {
	switch mode {
	case api.PersonaStrict:
		return instructionsStrict
	case api.PersonaStress:
		return instructionsStress
	default:
		return instructionsFriendly
	}
}

// errEmptyQuestion signals that an engine produced no usable question and the
// next engine in the chain should be tried.
var errEmptyQuestion = errors.New("interview: engine returned no question")
