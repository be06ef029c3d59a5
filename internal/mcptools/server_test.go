package mcptools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/internal/resilience"
	"github.com/candidly-dev/candidly/internal/store"
)

const testResume = "Five years of Go services work: gRPC APIs, PostgreSQL, and on-call ownership of a payments platform."

// newTestSession wires a Server to an in-memory MCP client session.
func newTestSession(t *testing.T) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	svc := interview.NewService(store.NewMemStore(), resilience.BreakerConfig{},
		interview.NamedEngine{Name: "bank", Engine: interview.NewBank()})
	srv := New(svc)

	serverT, clientT := mcpsdk.NewInMemoryTransports()
	srvSession, err := srv.mcp.Connect(ctx, serverT, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { srvSession.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "mcptools-test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool invokes name with args and decodes the structured result into T.
func callTool[T any](t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) T {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("call %s: tool error: %v", name, res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s result: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s result: %v", name, err)
	}
	return out
}

func TestListsInterviewTools(t *testing.T) {
	t.Parallel()
	session := newTestSession(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"start_interview": false,
		"submit_answer":   false,
		"end_interview":   false,
		"get_transcript":  false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not listed", name)
		}
	}
}

func TestInterviewLifecycleOverMCP(t *testing.T) {
	t.Parallel()
	session := newTestSession(t)

	started := callTool[startResult](t, session, "start_interview", map[string]any{
		"resume_text": testResume,
		"target_role": "Backend Engineer",
	})
	if started.SessionID == 0 {
		t.Fatal("expected non-zero session id")
	}
	if started.FirstQuestion == "" {
		t.Fatal("expected an opening question")
	}
	if started.QuestionIndex != 0 {
		t.Fatalf("QuestionIndex = %d, want 0", started.QuestionIndex)
	}

	submitted := callTool[submitResult](t, session, "submit_answer", map[string]any{
		"session_id": started.SessionID,
		"answer":     "I designed the ingestion pipeline around idempotent consumers so retries never double-charged a customer, and we load-tested it at twice the peak traffic before launch.",
	})
	if submitted.NextQuestion == "" {
		t.Fatal("expected a next question")
	}

	ended := callTool[endResult](t, session, "end_interview", map[string]any{
		"session_id": started.SessionID,
	})
	if ended.Status != "ended" {
		t.Fatalf("Status = %q, want %q", ended.Status, "ended")
	}
	if ended.TotalTurns != 3 {
		t.Fatalf("TotalTurns = %d, want 3", ended.TotalTurns)
	}

	transcript := callTool[transcriptResult](t, session, "get_transcript", map[string]any{
		"session_id": started.SessionID,
	})
	if len(transcript.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(transcript.Entries))
	}
	wantRoles := []string{interview.RoleAssistant, interview.RoleUser, interview.RoleAssistant}
	for i, entry := range transcript.Entries {
		if entry.Role != wantRoles[i] {
			t.Errorf("entry %d role = %q, want %q", i, entry.Role, wantRoles[i])
		}
		if entry.Seq != i {
			t.Errorf("entry %d seq = %d, want %d", i, entry.Seq, i)
		}
	}
}

func TestUnknownSessionIsToolError(t *testing.T) {
	t.Parallel()
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "submit_answer",
		Arguments: map[string]any{"session_id": 9999, "answer": "hello"},
	})
	if err != nil {
		t.Fatalf("call submit_answer: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for an unknown session")
	}
}

func TestStartValidationErrors(t *testing.T) {
	t.Parallel()
	session := newTestSession(t)

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name: "start_interview",
		Arguments: map[string]any{
			"resume_text": "too short",
			"target_role": "Backend Engineer",
		},
	})
	if err != nil {
		t.Fatalf("call start_interview: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error for a too-short resume")
	}
	if len(res.Content) > 0 {
		if tc, ok := res.Content[0].(*mcpsdk.TextContent); ok && !strings.Contains(tc.Text, "resume") {
			t.Errorf("error text %q does not mention the resume", tc.Text)
		}
	}
}
