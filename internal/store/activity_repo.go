package store

import (
	"context"

	"github.com/examsrv/examsrv/internal/domain"
)

// ActivityLogRepository is the append-only audit trail mentioned in
// handlers write one row per significant state change in addition to
// the structured slog line.
type ActivityLogRepository struct {
	db *DB
}

func NewActivityLogRepository(db *DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Insert(ctx context.Context, entry domain.ActivityLog) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO activity_log (level, username, action, details, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.Level, entry.Username, entry.Action, entry.Details, entry.Timestamp)
	return err
}
