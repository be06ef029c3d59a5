package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/candidly-dev/candidly/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(store.NewMemStore(), "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	u, err := svc.Register(ctx, "Ada@Example.com", "correct horse", "Ada Lovelace")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if u.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	token, logged, err := svc.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != u.ID {
		t.Errorf("login returned user %v, want %v", logged.ID, u.ID)
	}

	id, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id != u.ID {
		t.Errorf("token subject = %v, want %v", id, u.ID)
	}
}

func TestService_RegisterRejectsWeakInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "not-an-email", "long enough pw", ""); err == nil {
		t.Error("expected an error for a malformed email")
	}
	if _, err := svc.Register(ctx, "a@b.com", "short", ""); err == nil {
		t.Error("expected an error for a short password")
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "a@b.com", "password1", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "A@B.com", "password2", ""); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	svc.Register(ctx, "a@b.com", "password1", "")

	if _, _, err := svc.Login(ctx, "a@b.com", "password2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "missing@b.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestService_VerifyTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc := newTestService(t)
	// Issue an already-expired token.
	svc.tokenTTL = -time.Minute

	svc.Register(ctx, "a@b.com", "password1", "")
	token, _, loginErr := svc.Login(ctx, "a@b.com", "password1")
	if loginErr != nil {
		t.Fatalf("Login: %v", loginErr)
	}

	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v, want ErrInvalidToken", err)
	}
}

func TestService_VerifyTokenRejectsForeignSignature(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svcA := newTestService(t)
	svcB, _ := NewService(store.NewMemStore(), "other-secret", time.Minute)

	svcA.Register(ctx, "a@b.com", "password1", "")
	token, _, _ := svcA.Login(ctx, "a@b.com", "password1")

	if _, err := svcB.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token err = %v, want ErrInvalidToken", err)
	}
}

func TestMiddleware_OptionalAllowsAnonymous(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	var gotID uuid.UUID
	var gotOK bool
	h := svc.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = UserID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotOK || gotID != uuid.Nil {
		t.Error("anonymous request carried a user id")
	}
}

func TestMiddleware_RequiredRejectsMissingToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	h := svc.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without credentials")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddleware_ResolvesIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	u, _ := svc.Register(ctx, "a@b.com", "password1", "")
	token, _, _ := svc.Login(ctx, "a@b.com", "password1")

	var gotID uuid.UUID
	h := svc.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotID != u.ID {
		t.Errorf("context user = %v, want %v", gotID, u.ID)
	}
}
