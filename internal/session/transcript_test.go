package session_test

import (
	"testing"

	"github.com/candidly-dev/candidly/internal/session"
	"github.com/candidly-dev/candidly/pkg/api"
)

func TestTranscript_AppendAssignsSequentialIndices(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()

	seq0, err := tr.Append(session.RoleAssistant, "Tell me about yourself")
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	seq1, err := tr.Append(session.RoleUser, "I am a backend engineer")
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if seq0 != 0 || seq1 != 1 {
		t.Errorf("sequence indices = %d, %d; want 0, 1", seq0, seq1)
	}
	if got := tr.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestTranscript_AppendRejectsEmptyUserContent(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()
	if _, err := tr.Append(session.RoleUser, ""); err == nil {
		t.Fatal("Append(user, \"\") should return error")
	}

	// Assistant entries come from the service and are not validated.
	if _, err := tr.Append(session.RoleAssistant, ""); err != nil {
		t.Fatalf("Append(assistant, \"\") error: %v", err)
	}
}

func TestTranscript_AttachScoreFirstWriteWins(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()
	tr.Append(session.RoleAssistant, "Q1")
	seq, _ := tr.Append(session.RoleUser, "A1")

	if !tr.AttachScore(seq, api.Evaluation{Relevance: 72}) {
		t.Fatal("first AttachScore should succeed")
	}
	if tr.AttachScore(seq, api.Evaluation{Relevance: 15}) {
		t.Error("second AttachScore on the same index should be a no-op")
	}

	entries := tr.Snapshot()
	if entries[seq].Evaluation == nil {
		t.Fatal("entry should carry an evaluation")
	}
	if got := entries[seq].Evaluation.Relevance; got != 72 {
		t.Errorf("Relevance = %v, want 72 (original value must survive)", got)
	}
}

func TestTranscript_AttachScoreNoOps(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()
	aSeq, _ := tr.Append(session.RoleAssistant, "Q1")

	if tr.AttachScore(99, api.Evaluation{Relevance: 50}) {
		t.Error("AttachScore on a missing index should be a no-op")
	}
	if tr.AttachScore(-1, api.Evaluation{Relevance: 50}) {
		t.Error("AttachScore on a negative index should be a no-op")
	}
	if tr.AttachScore(aSeq, api.Evaluation{Relevance: 50}) {
		t.Error("AttachScore on an assistant entry should be a no-op")
	}
}

func TestTranscript_SealDropsLateScores(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()
	tr.Append(session.RoleAssistant, "Q1")
	seq, _ := tr.Append(session.RoleUser, "A1")

	tr.Seal()

	if tr.AttachScore(seq, api.Evaluation{Relevance: 90}) {
		t.Error("AttachScore after Seal should be a no-op")
	}
	if _, err := tr.Append(session.RoleAssistant, "Q2"); err == nil {
		t.Error("Append after Seal should return error")
	}
	if got := tr.Snapshot()[seq].Evaluation; got != nil {
		t.Errorf("sealed entry evaluation = %+v, want nil", got)
	}
}

func TestTranscript_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	tr := session.NewTranscript()
	tr.Append(session.RoleAssistant, "Q1")
	seq, _ := tr.Append(session.RoleUser, "A1")
	tr.AttachScore(seq, api.Evaluation{Relevance: 60})

	snap := tr.Snapshot()
	snap[0].Content = "mutated"
	snap[seq].Evaluation.Relevance = 1

	fresh := tr.Snapshot()
	if fresh[0].Content != "Q1" {
		t.Error("mutating a snapshot must not affect the transcript")
	}
	if fresh[seq].Evaluation.Relevance != 60 {
		t.Error("mutating a snapshot evaluation must not affect the transcript")
	}
}
