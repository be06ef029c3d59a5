package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/candidly-dev/candidly/internal/config"
	"github.com/candidly-dev/candidly/internal/store"
	"github.com/candidly-dev/candidly/pkg/api"
)

const testResume = "Six years of distributed-systems work in Go: event pipelines, PostgreSQL tuning, and incident command for a 24/7 marketplace."

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ListenAddr: ":0", LogLevel: config.LogError},
	}
}

func TestNewWiresMinimalApp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := New(ctx, testConfig(), nil, WithStore(store.NewMemStore()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(ctx)

	if a.Server() == nil {
		t.Fatal("expected a server")
	}
	if a.auth != nil {
		t.Error("expected auth disabled without a token secret")
	}

	// Without an LLM provider the bank engine must still produce questions.
	resp, err := a.interviews.Start(ctx, api.StartRequest{
		ResumeText: testResume,
		TargetRole: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.FirstQuestion == "" {
		t.Error("expected an opening question from the bank engine")
	}
}

func TestInterviewDefaultsComeFromConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := testConfig()
	cfg.Interview = config.InterviewConfig{
		DefaultMaxQuestions: 3,
		DefaultDifficulty:   api.DifficultyHard,
		DefaultPersona:      api.PersonaStrict,
	}
	st := store.NewMemStore()
	a, err := New(ctx, cfg, nil, WithStore(st))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(ctx)

	resp, err := a.interviews.Start(ctx, api.StartRequest{
		ResumeText: testResume,
		TargetRole: "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	sess, err := st.GetSession(ctx, resp.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.MaxQuestions != 3 {
		t.Errorf("MaxQuestions = %d, want 3", sess.MaxQuestions)
	}
	if sess.Difficulty != api.DifficultyHard {
		t.Errorf("Difficulty = %q, want %q", sess.Difficulty, api.DifficultyHard)
	}
	if sess.Persona != api.PersonaStrict {
		t.Errorf("Persona = %q, want %q", sess.Persona, api.PersonaStrict)
	}
}

func TestAuthEnabledWithSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := testConfig()
	cfg.Auth.TokenSecret = "test-secret"
	a, err := New(ctx, cfg, nil, WithStore(store.NewMemStore()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(ctx)

	ts := httptest.NewServer(a.Server().Handler())
	defer ts.Close()

	body := strings.NewReader(`{"email":"dev@example.com","password":"long-enough-pass"}`)
	resp, err := http.Post(ts.URL+"/api/auth/signup", "application/json", body)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := New(ctx, testConfig(), nil, WithStore(store.NewMemStore()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(ctx)

	ts := httptest.NewServer(a.Server().Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
