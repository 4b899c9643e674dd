package store

import (
	"context"

	"github.com/examsrv/examsrv/internal/domain"
)

// PracticeResultRepository persists only the graded/expired outcome
// of a practice session: the session itself lives in the server's
// in-memory practice table and is never written to the store.
type PracticeResultRepository struct {
	db *DB
}

func NewPracticeResultRepository(db *DB) *PracticeResultRepository {
	return &PracticeResultRepository{db: db}
}

func (r *PracticeResultRepository) Insert(ctx context.Context, res *domain.PracticeResult) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO practice_results (practice_id, username, score, total, submit_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (practice_id) DO NOTHING
	`, res.PracticeID, res.Username, res.Score, res.Total, res.SubmitTime)
	return err
}
