package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/examsrv/examsrv/internal/domain"
)

// ExamResultRepository backs SUBMIT_EXAM / VIEW_RESULT and the
// sweeper's force-submit path. Follows a finalized-row-per-aggregate
// repository shape (one finalized row per aggregate,
// inserted once and never mutated).
type ExamResultRepository struct {
	db *DB
}

func NewExamResultRepository(db *DB) *ExamResultRepository {
	return &ExamResultRepository{db: db}
}

// Insert records a graded attempt. It is a no-op (returning
// domain.ErrAlreadySubmitted) if a row already exists for (room,
// user) — invariant 3: at most one exam_results row per (room, user).
func (r *ExamResultRepository) Insert(ctx context.Context, res *domain.ExamResult) error {
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO exam_results (room_id, username, score, total, answer_string, submit_time, time_taken_second)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_id, username) DO NOTHING
	`, res.RoomID, res.Username, res.Score, res.Total, res.AnswerString, res.SubmitTime, res.TimeTakenSecond)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySubmitted
	}
	return nil
}

func (r *ExamResultRepository) Get(ctx context.Context, roomID, username string) (*domain.ExamResult, error) {
	res := &domain.ExamResult{RoomID: roomID, Username: username}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT score, total, answer_string, submit_time, time_taken_second
		FROM exam_results WHERE room_id = $1 AND username = $2
	`, roomID, username).Scan(&res.Score, &res.Total, &res.AnswerString, &res.SubmitTime, &res.TimeTakenSecond)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CountSubmissions returns how many exam_results rows exist for a
// room, used to decide whether every participant has submitted.
func (r *ExamResultRepository) CountSubmissions(ctx context.Context, roomID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM exam_results WHERE room_id = $1
	`, roomID).Scan(&n)
	return n, err
}

// Leaderboard returns every exam_results row for a room, dense-ranked
// by score desc then submit_time asc: tied scores share a rank, and
// the next distinct score follows with no gap (e.g. scores 5,5,3
// produce ranks 1,1,2).
func (r *ExamResultRepository) Leaderboard(ctx context.Context, roomID string) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT username, score, total, submit_time, time_taken_second
		FROM exam_results
		WHERE room_id = $1
		ORDER BY score DESC, submit_time ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Total, &e.SubmitTime, &e.TimeTaken); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	assignDenseRanks(entries)
	return entries, rows.Err()
}

// assignDenseRanks fills in Rank for rows already ordered score desc:
// ties share a rank, and the next distinct score follows with no gap
// (scores 5,5,3 produce ranks 1,1,2).
func assignDenseRanks(entries []domain.LeaderboardEntry) {
	rank := 0
	prevScore := 0
	for i := range entries {
		if i == 0 || entries[i].Score != prevScore {
			rank++
		}
		entries[i].Rank = rank
		prevScore = entries[i].Score
	}
}
