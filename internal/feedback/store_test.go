package feedback

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSaveAppendsJSONLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	fs := NewFileStore(path)

	if err := fs.Save(Record{SessionID: 1, Rating: 5, Comments: "great questions"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := fs.Save(Record{SessionID: 2, Rating: 3, QuestionQuality: 4}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var records []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SessionID != 1 || records[0].Rating != 5 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].QuestionQuality != 4 {
		t.Errorf("second record question_quality = %d, want 4", records[1].QuestionQuality)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
}

func TestSaveRejectsBadRatings(t *testing.T) {
	t.Parallel()

	fs := NewFileStore(filepath.Join(t.TempDir(), "feedback.jsonl"))
	for _, rec := range []Record{
		{SessionID: 1, Rating: 0},
		{SessionID: 1, Rating: 6},
		{SessionID: 1, Rating: 3, ScoreAccuracy: 9},
	} {
		if err := fs.Save(rec); err == nil {
			t.Errorf("Save(%+v) succeeded, want error", rec)
		}
	}
}

func TestSaveConcurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	fs := NewFileStore(path)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.Save(Record{SessionID: int64(i), Rating: 4}); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 20 {
		t.Errorf("got %d lines, want 20", lines)
	}
}
