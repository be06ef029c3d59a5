// Package auth provides account registration, login and bearer-token
// verification.
//
// Passwords are hashed with bcrypt. Access tokens are HS256-signed JWTs with
// the user id as subject; [Service.VerifyToken] resolves a token back to the
// user id, and the HTTP middleware in middleware.go threads that identity
// through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/candidly-dev/candidly/internal/store"
)

// Sentinel errors surfaced to HTTP handlers.
var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrEmailTaken         = errors.New("auth: email is already registered")
	ErrInvalidCredentials = errors.New("auth: incorrect email or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// DefaultTokenTTL is the access-token lifetime when none is configured.
const DefaultTokenTTL = 60 * time.Minute

const issuer = "candidly"

// Service issues and verifies access tokens against a [store.UserStore].
// It is safe for concurrent use.
type Service struct {
	users    store.UserStore
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an auth [Service]. secret signs and verifies tokens and
// must be non-empty. A zero tokenTTL selects [DefaultTokenTTL].
func NewService(users store.UserStore, secret string, tokenTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: secret must not be empty")
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{users: users, secret: []byte(secret), tokenTTL: tokenTTL}, nil
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (store.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return store.User{}, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}
	if len(password) < 8 {
		return store.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, store.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		return store.User{}, ErrEmailTaken
	}
	if err != nil {
		return store.User{}, fmt.Errorf("auth: create user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and returns a signed access token together
// with the account. Wrong email and wrong password are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, store.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, store.ErrNotFound) {
		return "", store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", store.User{}, fmt.Errorf("auth: lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", store.User{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", store.User{}, err
	}
	return token, u, nil
}

// VerifyToken validates an access token and returns the user id it names.
func (s *Service) VerifyToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// GetUser loads the account for id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (store.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *Service) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}
