// Package feedback stores candidate feedback on finished practice sessions.
// Entries are appended as JSON lines to a local file, which is enough for
// the current scale; a PostgreSQL-backed implementation can replace the file
// without touching the handler.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is a single feedback entry as written to the store.
type Record struct {
	Timestamp time.Time  `json:"timestamp"`
	SessionID int64      `json:"session_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`

	// Rating is the candidate's 1-5 rating of the session.
	Rating int `json:"rating"`

	// QuestionQuality and ScoreAccuracy are optional 1-5 sub-ratings.
	QuestionQuality int `json:"question_quality,omitempty"`
	ScoreAccuracy   int `json:"score_accuracy,omitempty"`

	Comments string `json:"comments,omitempty"`
}

// validate checks the rating ranges. Zero sub-ratings mean "not answered".
func (r Record) validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("feedback: rating %d out of range 1-5", r.Rating)
	}
	for name, v := range map[string]int{
		"question_quality": r.QuestionQuality,
		"score_accuracy":   r.ScoreAccuracy,
	} {
		if v != 0 && (v < 1 || v > 5) {
			return fmt.Errorf("feedback: %s %d out of range 1-5", name, v)
		}
	}
	return nil
}

// FileStore persists feedback as JSON lines in a local file.
// Safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore that writes to path. The file is created
// on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save validates rec, stamps it with the current time, and appends it.
func (fs *FileStore) Save(rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	rec.Timestamp = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("feedback: marshal: %w", err)
	}
	data = append(data, '\n')

	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("feedback: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("feedback: write: %w", err)
	}
	return nil
}
