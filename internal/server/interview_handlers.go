package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/feedback"
	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/pkg/api"
)

// sessionID parses the {id} path segment.
func sessionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad session id %q", interview.ErrInvalid, r.PathValue("id"))
	}
	return id, nil
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.cfg.Interviews.Start(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ActiveSessions.Add(r.Context(), 1)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	resp, err := s.cfg.Interviews.SubmitAnswer(r.Context(), id, req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.TurnDuration.Record(r.Context(), time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.cfg.Interviews.End(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// transcriptEntry is one turn in the transcript reply.
type transcriptEntry struct {
	Seq        int             `json:"seq"`
	Role       string          `json:"role"`
	Content    string          `json:"content"`
	Evaluation *api.Evaluation `json:"evaluation,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type transcriptReply struct {
	ID      int64             `json:"id"`
	Entries []transcriptEntry `json:"entries"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	turns, err := s.cfg.Interviews.Transcript(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reply := transcriptReply{ID: id, Entries: make([]transcriptEntry, 0, len(turns))}
	for _, t := range turns {
		reply.Entries = append(reply.Entries, transcriptEntry{
			Seq:        t.TurnIndex,
			Role:       t.Role,
			Content:    t.Content,
			Evaluation: t.Evaluation,
			CreatedAt:  t.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, reply)
}

// feedbackRequest is the body of POST /api/interviews/live/{id}/feedback.
type feedbackRequest struct {
	Rating          int    `json:"rating"`
	QuestionQuality int    `json:"question_quality,omitempty"`
	ScoreAccuracy   int    `json:"score_accuracy,omitempty"`
	Comments        string `json:"comments,omitempty"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, r, fmt.Errorf("%w: rating must be 1-5", interview.ErrInvalid))
		return
	}

	// Transcript performs the existence and ownership checks.
	if _, err := s.cfg.Interviews.Transcript(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	rec := feedback.Record{
		SessionID:       id,
		Rating:          req.Rating,
		QuestionQuality: req.QuestionQuality,
		ScoreAccuracy:   req.ScoreAccuracy,
		Comments:        req.Comments,
	}
	if uid, ok := auth.UserID(r.Context()); ok {
		rec.UserID = &uid
	}
	if err := s.cfg.Feedback.Save(rec); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req api.EvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Question == "" || req.Answer == "" {
		writeError(w, r, fmt.Errorf("%w: question and answer are required", interview.ErrInvalid))
		return
	}

	ev, err := s.cfg.Evaluator.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
