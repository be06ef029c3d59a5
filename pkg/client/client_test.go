package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/client"
)

func TestInterview_StartWireFormat(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/interviews/live/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(api.StartResponse{ID: 7, FirstQuestion: "Q1", QuestionIndex: 0})
	}))
	defer srv.Close()

	c, err := client.NewInterview(srv.URL, client.WithToken("tok-1"))
	if err != nil {
		t.Fatalf("NewInterview error: %v", err)
	}

	resp, err := c.Start(context.Background(), api.StartRequest{
		ResumeText:  "resume",
		TargetRole:  "Backend Engineer",
		Difficulty:  api.DifficultyHard,
		PersonaMode: api.PersonaStrict,
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if resp.ID != 7 || resp.FirstQuestion != "Q1" {
		t.Errorf("resp = %+v", resp)
	}

	if gotAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	// Wire field names are snake_case, fixed by the api package.
	for _, key := range []string{"resume_text", "target_role", "difficulty", "personality_mode"} {
		if _, ok := gotBody[key]; !ok {
			t.Errorf("request body missing %q: %v", key, gotBody)
		}
	}
}

func TestInterview_SubmitAnswerPath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/interviews/live/42/submit" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req api.SubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Answer != "my answer" {
			t.Errorf("answer = %q", req.Answer)
		}
		json.NewEncoder(w).Encode(api.SubmitResponse{NextQuestion: "Q2", QuestionIndex: 1, IsFollowUp: true})
	}))
	defer srv.Close()

	c, _ := client.NewInterview(srv.URL)
	resp, err := c.SubmitAnswer(context.Background(), 42, "my answer")
	if err != nil {
		t.Fatalf("SubmitAnswer error: %v", err)
	}
	if !resp.IsFollowUp || resp.QuestionIndex != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestInterview_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "interview session has ended"})
	}))
	defer srv.Close()

	c, _ := client.NewInterview(srv.URL)
	_, err := c.SubmitAnswer(context.Background(), 1, "answer")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	var se *client.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *client.StatusError", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Message != "interview session has ended" {
		t.Errorf("StatusError = %+v", se)
	}
}

func TestInterview_SingleAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := client.NewInterview(srv.URL)
	if _, err := c.End(context.Background(), 3); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want exactly 1 (no retries)", calls)
	}
}

func TestEvaluation_Evaluate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/answers/evaluate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req api.EvaluationRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Question == "" || req.Answer == "" {
			t.Errorf("req = %+v", req)
		}
		json.NewEncoder(w).Encode(api.Evaluation{
			Relevance: 72, Depth: 61, Clarity: 80, Confidence: 66, OverallScore: 68.4,
			Feedback: "add concrete examples",
		})
	}))
	defer srv.Close()

	c, err := client.NewEvaluation(srv.URL)
	if err != nil {
		t.Fatalf("NewEvaluation error: %v", err)
	}
	ev, err := c.Evaluate(context.Background(), api.EvaluationRequest{
		Question:   "Tell me about yourself",
		Answer:     "I am a backend engineer",
		TargetRole: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if ev.Relevance != 72 || ev.Feedback == "" {
		t.Errorf("evaluation = %+v", ev)
	}
}

func TestNewInterview_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := client.NewInterview(""); err == nil {
		t.Error("NewInterview(\"\") should return error")
	}
	if _, err := client.NewEvaluation(""); err == nil {
		t.Error("NewEvaluation(\"\") should return error")
	}
}
