package store

import (
	"context"

	"github.com/examsrv/examsrv/internal/domain"
)

// QuestionRepository serves the global question pool, including the
// random-pick-N facility CREATE_ROOM and PRACTICE both need.
type QuestionRepository struct {
	db *DB
}

func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// PickRandom returns n distinct random questions. Grounded on the
// random-pick-N query facility; Postgres's ORDER BY random() is the
// idiomatic single-query way to satisfy it without loading the whole
// pool.
func (r *QuestionRepository) PickRandom(ctx context.Context, n int) ([]domain.Question, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, content, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		ORDER BY random()
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByIDs returns questions matching ids, in no particular order;
// callers reorder by their own ordinal list (e.g. room_questions).
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Question, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, content, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Count returns how many questions exist in the pool, used to bound
// CREATE_ROOM / PRACTICE requests asking for more than the pool has.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}
