package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/candidly-dev/candidly/internal/auth"
	"github.com/candidly-dev/candidly/internal/interview"
	"github.com/candidly-dev/candidly/internal/store"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenReply struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        userReply `json:"user"`
}

type userReply struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toUserReply(u store.User) userReply {
	return userReply{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.cfg.Auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Sign the new user in immediately.
	token, _, err := s.cfg.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenReply{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserReply(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := s.cfg.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenReply{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserReply(user),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		// Required middleware guarantees an identity; reaching here means the
		// route was wired without it.
		writeError(w, r, fmt.Errorf("%w: missing identity", interview.ErrForbidden))
		return
	}

	user, err := s.cfg.Auth.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserReply(user))
}
