package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/candidly-dev/candidly/internal/store"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// CreateUser implements [store.UserStore].
func (s *Store) CreateUser(ctx context.Context, u store.User) (store.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	const q = `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := s.pool.QueryRow(ctx, q, u.ID, u.Email, u.PasswordHash, u.FullName).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.User{}, store.ErrDuplicateEmail
		}
		return store.User{}, fmt.Errorf("postgres store: create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail implements [store.UserStore].
func (s *Store) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	const q = `
		SELECT id, email, password_hash, full_name, created_at
		FROM   users
		WHERE  lower(email) = lower($1)`

	return s.scanUser(s.pool.QueryRow(ctx, q, email))
}

// GetUser implements [store.UserStore].
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (store.User, error) {
	const q = `
		SELECT id, email, password_hash, full_name, created_at
		FROM   users
		WHERE  id = $1`

	return s.scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) scanUser(row pgx.Row) (store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("postgres store: get user: %w", err)
	}
	return u, nil
}
