// Package mcptools exposes live interview sessions as MCP tools.
//
// It wraps an [interview.Service] in an MCP server speaking the stdio
// transport, so that agent frameworks can drive a full mock interview
// programmatically. Four tools are exported:
//   - "start_interview"  — begin a session from a resume and target role.
//   - "submit_answer"    — answer the current question, receive the next.
//   - "end_interview"    — close a session and get the turn count.
//   - "get_transcript"   — fetch the full transcript with any scores.
//
// All handlers are safe for concurrent use; session state lives in the
// wrapped service and its store, not in this package.
package mcptools

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/pkg/api"
)

// serverVersion is reported to MCP clients during initialization.
const serverVersion = "1.0.0"

// startArgs is the decoded input for the "start_interview" tool.
type startArgs struct {
	// ResumeText is pasted resume content used to personalise questions.
	ResumeText string `json:"resume_text" jsonschema:"resume or CV text to tailor questions to"`

	// TargetRole is the role the candidate is practising for.
	TargetRole string `json:"target_role" jsonschema:"target job role, e.g. Backend Engineer"`

	// Difficulty is easy, medium or hard. Empty means medium.
	Difficulty string `json:"difficulty,omitempty" jsonschema:"question difficulty: easy, medium or hard"`

	// PersonaMode selects the interviewer persona. Empty means friendly.
	PersonaMode string `json:"personality_mode,omitempty" jsonschema:"interviewer persona: friendly, strict or stress"`

	// MaxQuestions caps distinct questions for the session. Zero means the
	// server default.
	MaxQuestions int `json:"max_questions,omitempty" jsonschema:"maximum number of distinct questions (1-25)"`
}

// startResult is the encoded output of the "start_interview" tool.
type startResult struct {
	SessionID     int64  `json:"session_id"`
	FirstQuestion string `json:"first_question"`
	QuestionIndex int    `json:"question_index"`
}

// submitArgs is the decoded input for the "submit_answer" tool.
type submitArgs struct {
	SessionID int64  `json:"session_id" jsonschema:"identifier returned by start_interview"`
	Answer    string `json:"answer" jsonschema:"the candidate's answer to the current question"`
}

// submitResult is the encoded output of the "submit_answer" tool.
type submitResult struct {
	SessionID     int64  `json:"session_id"`
	NextQuestion  string `json:"next_question"`
	QuestionIndex int    `json:"question_index"`
	IsFollowUp    bool   `json:"is_follow_up"`
}

// endArgs is the decoded input for the "end_interview" tool.
type endArgs struct {
	SessionID int64 `json:"session_id" jsonschema:"identifier returned by start_interview"`
}

// endResult is the encoded output of the "end_interview" tool.
type endResult struct {
	SessionID  int64  `json:"session_id"`
	Status     string `json:"status"`
	TotalTurns int    `json:"total_turns"`
}

// transcriptArgs is the decoded input for the "get_transcript" tool.
type transcriptArgs struct {
	SessionID int64 `json:"session_id" jsonschema:"identifier returned by start_interview"`
}

// transcriptEntry is one turn in a "get_transcript" result.
type transcriptEntry struct {
	Seq     int    `json:"seq"`
	Role    string `json:"role"`
	Content string `json:"content"`

	// Evaluation is present only for candidate turns that have been scored.
	Evaluation *api.Evaluation `json:"evaluation,omitempty"`
}

// transcriptResult is the encoded output of the "get_transcript" tool.
type transcriptResult struct {
	SessionID int64             `json:"session_id"`
	Entries   []transcriptEntry `json:"entries"`
}

// Server bridges an [interview.Service] onto the MCP protocol.
//
// The zero value is not usable; create instances with [New].
type Server struct {
	interviews *interview.Service
	mcp        *mcpsdk.Server
}

// New creates a Server exposing the interview tools over interviews.
func New(interviews *interview.Service) *Server {
	s := &Server{
		interviews: interviews,
		mcp: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: "candidly", Version: serverVersion},
			nil,
		),
	}

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "start_interview",
		Description: "Start a mock interview session. Returns the session id and the opening question.",
	}, s.startInterview)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "submit_answer",
		Description: "Submit an answer to the session's current question. Returns the next question, which may be a follow-up on the same topic.",
	}, s.submitAnswer)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "end_interview",
		Description: "End a mock interview session. Idempotent; repeated calls return the same final state.",
	}, s.endInterview)
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_transcript",
		Description: "Fetch the full transcript of a session, including any answer scores produced so far.",
	}, s.getTranscript)

	return s
}

// Run serves MCP requests over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.mcp.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("mcptools: serve stdio: %w", err)
	}
	return nil
}

func (s *Server) startInterview(ctx context.Context, req *mcpsdk.CallToolRequest, args startArgs) (*mcpsdk.CallToolResult, startResult, error) {
	resp, err := s.interviews.Start(ctx, api.StartRequest{
		ResumeText:   args.ResumeText,
		TargetRole:   args.TargetRole,
		Difficulty:   api.Difficulty(args.Difficulty),
		PersonaMode:  api.Persona(args.PersonaMode),
		MaxQuestions: args.MaxQuestions,
	})
	if err != nil {
		return nil, startResult{}, err
	}
	return nil, startResult{
		SessionID:     resp.ID,
		FirstQuestion: resp.FirstQuestion,
		QuestionIndex: resp.QuestionIndex,
	}, nil
}

func (s *Server) submitAnswer(ctx context.Context, req *mcpsdk.CallToolRequest, args submitArgs) (*mcpsdk.CallToolResult, submitResult, error) {
	resp, err := s.interviews.SubmitAnswer(ctx, args.SessionID, args.Answer)
	if err != nil {
		return nil, submitResult{}, err
	}
	return nil, submitResult{
		SessionID:     resp.ID,
		NextQuestion:  resp.NextQuestion,
		QuestionIndex: resp.QuestionIndex,
		IsFollowUp:    resp.IsFollowUp,
	}, nil
}

func (s *Server) endInterview(ctx context.Context, req *mcpsdk.CallToolRequest, args endArgs) (*mcpsdk.CallToolResult, endResult, error) {
	resp, err := s.interviews.End(ctx, args.SessionID)
	if err != nil {
		return nil, endResult{}, err
	}
	return nil, endResult{
		SessionID:  resp.ID,
		Status:     resp.Status,
		TotalTurns: resp.TotalTurns,
	}, nil
}

func (s *Server) getTranscript(ctx context.Context, req *mcpsdk.CallToolRequest, args transcriptArgs) (*mcpsdk.CallToolResult, transcriptResult, error) {
	turns, err := s.interviews.Transcript(ctx, args.SessionID)
	if err != nil {
		return nil, transcriptResult{}, err
	}
	out := transcriptResult{
		SessionID: args.SessionID,
		Entries:   make([]transcriptEntry, 0, len(turns)),
	}
	for _, t := range turns {
		out.Entries = append(out.Entries, transcriptEntry{
			Seq:        t.TurnIndex,
			Role:       t.Role,
			Content:    t.Content,
			Evaluation: t.Evaluation,
		})
	}
	return nil, out, nil
}
