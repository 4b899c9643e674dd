package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/examsrv/examsrv/internal/domain"
)

// RoomRepository backs CREATE_ROOM / LIST_ROOMS / JOIN_ROOM / LEAVE_ROOM
// / START_EXAM room-state transitions. Follows a conversation-repository
// pattern (room/conversation as the
// aggregate root, membership as a join table, status as a narrow
// enum column) generalized from chat conversations to exam rooms.
type RoomRepository struct {
	db *DB
}

func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room, its fixed question list, and the creator's
// participant row in one transaction (invariant 6: the creator is
// always a participant).
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room, questionIDs []int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO rooms (id, name, creator, num_questions, time_limit_minutes,
		                    status, max_participants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, room.ID, room.Name, room.Creator, room.NumQuestions, room.TimeLimitMinutes,
		int(domain.RoomNotStarted), room.MaxParticipants)
	if err != nil {
		return err
	}

	for i, qid := range questionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO room_questions (room_id, question_id, ordinal)
			VALUES ($1, $2, $3)
		`, room.ID, qid, i); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO participants (room_id, username) VALUES ($1, $2)
	`, room.ID, room.Creator); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	room := &domain.Room{ID: id}
	var status int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT r.name, r.creator, r.num_questions, r.time_limit_minutes, r.status,
		       r.start_time, r.finish_time, r.max_participants, r.created_at,
		       (SELECT COUNT(*) FROM participants p WHERE p.room_id = r.id)
		FROM rooms r WHERE r.id = $1
	`, id).Scan(
		&room.Name, &room.Creator, &room.NumQuestions, &room.TimeLimitMinutes, &status,
		&room.StartTime, &room.FinishTime, &room.MaxParticipants, &room.CreatedAt,
		&room.ParticipantCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	room.Status = domain.RoomStatus(status)
	return room, nil
}

// List returns rooms filtered by status, or every room when all is true.
func (r *RoomRepository) List(ctx context.Context, status domain.RoomStatus, all bool) ([]domain.Room, error) {
	query := `
		SELECT r.id, r.name, r.creator, r.num_questions, r.time_limit_minutes, r.status,
		       r.start_time, r.finish_time, r.max_participants, r.created_at,
		       (SELECT COUNT(*) FROM participants p WHERE p.room_id = r.id)
		FROM rooms r`
	var rows pgx.Rows
	var err error
	if all {
		rows, err = r.db.Pool.Query(ctx, query+" ORDER BY r.created_at DESC")
	} else {
		rows, err = r.db.Pool.Query(ctx, query+" WHERE r.status = $1 ORDER BY r.created_at DESC", int(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		var st int
		if err := rows.Scan(
			&room.ID, &room.Name, &room.Creator, &room.NumQuestions, &room.TimeLimitMinutes, &st,
			&room.StartTime, &room.FinishTime, &room.MaxParticipants, &room.CreatedAt,
			&room.ParticipantCount,
		); err != nil {
			return nil, err
		}
		room.Status = domain.RoomStatus(st)
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) AddParticipant(ctx context.Context, roomID, username string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO participants (room_id, username) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roomID, username)
	return err
}

// RemoveParticipant removes a single participant row, used by
// LEAVE_ROOM when the caller is not the creator (or the room has
// already started, so the room itself cannot be deleted).
func (r *RoomRepository) RemoveParticipant(ctx context.Context, roomID, username string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM participants WHERE room_id = $1 AND username = $2
	`, roomID, username)
	return err
}

func (r *RoomRepository) IsParticipant(ctx context.Context, roomID, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM participants WHERE room_id = $1 AND username = $2)
	`, roomID, username).Scan(&exists)
	return exists, err
}

// Delete removes a room; cascading foreign keys take room_questions,
// participants, and exam_results with it.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	return err
}

// Start transitions a room from NOT_STARTED to IN_PROGRESS and stamps
// start_time, only if it is still NOT_STARTED (prevents a double-start
// race under concurrent START_EXAM calls).
func (r *RoomRepository) Start(ctx context.Context, id string, startTime time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE rooms SET status = $2, start_time = $3
		WHERE id = $1 AND status = $4
	`, id, int(domain.RoomInProgress), startTime, int(domain.RoomNotStarted))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Finish transitions a room to FINISHED, only if it is currently
// IN_PROGRESS (monotonic lifecycle, invariant 2).
func (r *RoomRepository) Finish(ctx context.Context, id string, finishTime time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE rooms SET status = $2, finish_time = $3
		WHERE id = $1 AND status = $4
	`, id, int(domain.RoomFinished), finishTime, int(domain.RoomInProgress))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredInProgress returns the IDs and deadlines of every
// IN_PROGRESS room whose deadline has passed, for the sweeper.
func (r *RoomRepository) ListExpiredInProgress(ctx context.Context, now time.Time) ([]domain.Room, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, creator, num_questions, time_limit_minutes, status,
		       start_time, finish_time, max_participants, created_at
		FROM rooms
		WHERE status = $1 AND start_time IS NOT NULL
		  AND start_time + make_interval(mins => time_limit_minutes) <= $2
	`, int(domain.RoomInProgress), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		var st int
		if err := rows.Scan(
			&room.ID, &room.Name, &room.Creator, &room.NumQuestions, &room.TimeLimitMinutes, &st,
			&room.StartTime, &room.FinishTime, &room.MaxParticipants, &room.CreatedAt,
		); err != nil {
			return nil, err
		}
		room.Status = domain.RoomStatus(st)
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) ListParticipants(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT username FROM participants WHERE room_id = $1
	`, roomID)
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

// RoomQuestionIDs returns question IDs for a room in their fixed ordinal order.
func (r *RoomRepository) RoomQuestionIDs(ctx context.Context, roomID string) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT question_id FROM room_questions WHERE room_id = $1 ORDER BY ordinal
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
