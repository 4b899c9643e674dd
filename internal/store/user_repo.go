package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/examsrv/examsrv/internal/domain"
)

// UserRepository handles credential and lock-state access for the
// users table. Follows a repository constructor shape (same pgx.ErrNoRows
// translation), trimmed to this system's narrower user model.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row. Callers must have already validated
// the username is free; a unique-violation still surfaces as a plain
// error if a race loses to a concurrent REGISTER.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, locked)
		VALUES ($1, $2, FALSE)
	`, username, passwordHash)
	return err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT username, password_hash, locked FROM users WHERE username = $1
	`, username).Scan(&u.Username, &u.PasswordHash, &u.Locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	return exists, err
}

// SetLocked flips a user's locked flag. No handler in this server
// calls it; LOGIN only reads the flag.
func (r *UserRepository) SetLocked(ctx context.Context, username string, locked bool) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET locked = $2 WHERE username = $1
	`, username, locked)
	return err
}
