package server

import (
	"context"
	"testing"
	"time"

	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/pkg/api"
	"github.com/candidly-dev/candidly/pkg/client"
)

func TestWatchStreamsLiveTranscript(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t)
	iv, err := client.NewInterview(f.ts.URL)
	if err != nil {
		t.Fatalf("NewInterview: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started, err := iv.Start(ctx, api.StartRequest{ResumeText: testResume, TargetRole: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	events, err := iv.Watch(ctx, started.ID)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// The opening question is replayed to the late subscriber.
	first := <-events
	if first.Type != api.EventEntry || first.Seq != 0 || first.Role != interview.RoleAssistant {
		t.Fatalf("first event = %+v", first)
	}
	if first.Content != started.FirstQuestion {
		t.Errorf("replayed question = %q, want %q", first.Content, started.FirstQuestion)
	}

	answer := "I designed the retry pipeline for our webhook delivery system and brought p99 latency under a second."
	if _, err := iv.SubmitAnswer(ctx, started.ID, answer); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	// Read until the asynchronous score arrives, then end the session. Ending
	// earlier could race the scoring goroutine against feed teardown.
	var sawAnswer, sawScore bool
	for !sawScore {
		select {
		case ev := <-events:
			switch {
			case ev.Type == api.EventEntry && ev.Role == interview.RoleUser && ev.Content == answer:
				sawAnswer = true
			case ev.Type == api.EventScore:
				if ev.Evaluation == nil || ev.Evaluation.OverallScore != 70 {
					t.Fatalf("score event = %+v", ev)
				}
				if ev.Seq != 1 {
					t.Errorf("score seq = %d, want 1", ev.Seq)
				}
				sawScore = true
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for score event")
		}
	}
	if !sawAnswer {
		t.Error("never saw the candidate answer entry")
	}

	if _, err := iv.End(ctx, started.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	sawEnded := false
	for ev := range events {
		if ev.Type == api.EventEnded {
			sawEnded = true
		}
	}
	if !sawEnded {
		t.Error("never saw the ended event")
	}
}

func TestWatchEndedSessionReplaysAndCloses(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t)
	iv, err := client.NewInterview(f.ts.URL)
	if err != nil {
		t.Fatalf("NewInterview: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	started, err := iv.Start(ctx, api.StartRequest{ResumeText: testResume, TargetRole: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := iv.End(ctx, started.ID); err != nil {
		t.Fatalf("End: %v", err)
	}

	events, err := iv.Watch(ctx, started.ID)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	var got []api.TranscriptEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (replay + ended): %+v", len(got), got)
	}
	if got[0].Type != api.EventEntry || got[1].Type != api.EventEnded {
		t.Errorf("event types = %q, %q", got[0].Type, got[1].Type)
	}
	if got[1].Seq != 1 {
		t.Errorf("ended seq = %d, want 1", got[1].Seq)
	}
}

func TestWatchUnknownSessionIsError(t *testing.T) {
	t.Parallel()

	f := newTestFixture(t)
	iv, err := client.NewInterview(f.ts.URL)
	if err != nil {
		t.Fatalf("NewInterview: %v", err)
	}

	if _, err := iv.Watch(context.Background(), 12345); err == nil {
		t.Error("expected error watching unknown session")
	}
}
