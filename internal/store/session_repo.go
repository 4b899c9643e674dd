package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/examsrv/examsrv/internal/domain"
)

// SessionRepository enforces the single-active-session-per-username
// invariant at the store layer: Create deactivates any prior active
// session for the same username inside the same transaction it inserts
// the new one. Follows a transactional Create-then-insert shape.
type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create deactivates any existing active session for username and
// inserts a new active one with the given token, atomically.
func (r *SessionRepository) Create(ctx context.Context, token, username string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE sessions SET active = FALSE WHERE username = $1 AND active
	`, username); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO sessions (token, username, last_active, active)
		VALUES ($1, $2, NOW(), TRUE)
	`, token, username); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *SessionRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT token, username, last_active, active
		FROM sessions WHERE username = $1 AND active
	`, username).Scan(&s.Token, &s.Username, &s.LastActive, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT token, username, last_active, active
		FROM sessions WHERE token = $1 AND active
	`, token).Scan(&s.Token, &s.Username, &s.LastActive, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, token string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE sessions SET active = FALSE WHERE token = $1
	`, token)
	return err
}

func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE sessions SET last_active = $2 WHERE token = $1
	`, token, at)
	return err
}

// DeactivateIdleSince deactivates every active session whose
// last_active is older than cutoff, returning the affected usernames
// (used by the sweeper's idle-timeout pass).
func (r *SessionRepository) DeactivateIdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		UPDATE sessions SET active = FALSE
		WHERE active AND last_active < $1
		RETURNING username
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		usernames = append(usernames, u)
	}
	return usernames, rows.Err()
}
