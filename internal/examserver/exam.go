package examserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/examsrv/examsrv/internal/domain"
	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
	"github.com/examsrv/examsrv/internal/validate"
)

// handleGetExam fetches the room's fixed question order (without
// correct answers), caches it into the slot, and responds with the
// question JSON.
func (s *Server) handleGetExam(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateInRoom && snap.State != registry.StateInExam {
		return w.WriteSimple(codeNotInRoom, "not in a room or exam")
	}
	if ok, err := requireParams(w, params, 1); !ok {
		return err
	}
	roomID := params[0]

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return w.WriteSimple(codeRoomNotFound, "room not found")
	}
	if err != nil {
		return err
	}
	isParticipant, err := s.rooms.IsParticipant(ctx, roomID, snap.Username)
	if err != nil {
		return err
	}
	if !isParticipant {
		return w.WriteSimple(codeNotInRoom, "not a participant of this room")
	}
	if room.Status != domain.RoomInProgress {
		return w.WriteSimple(codeInvalidState, "room is not in progress")
	}

	ids, err := s.rooms.RoomQuestionIDs(ctx, roomID)
	if err != nil {
		return err
	}
	questions, err := s.questions.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	ordered := orderQuestions(ids, questions)

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.QuestionIDs = ids
		sl.Answers = make([]string, len(ids))
		sl.HasSubmitted = false
	})

	payload := examPayload{Questions: make([]examQuestion, len(ordered))}
	for i, q := range ordered {
		payload.Questions[i] = questionToWire(q)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteData(codeExamData, body)
}

// orderQuestions reorders the unordered rows GetByIDs returns to match
// ids's ordinal sequence, skipping any id the pool no longer has.
func orderQuestions(ids []int64, rows []domain.Question) []domain.Question {
	byID := make(map[int64]domain.Question, len(rows))
	for _, q := range rows {
		byID[q.ID] = q
	}
	ordered := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

func questionToWire(q domain.Question) examQuestion {
	return examQuestion{
		QuestionID: q.ID,
		Content:    q.Text,
		Options: []string{
			"A. " + q.OptionA,
			"B. " + q.OptionB,
			"C. " + q.OptionC,
			"D. " + q.OptionD,
		},
	}
}

// handleSaveAnswer records one answer choice into the caller's slot.
func (s *Server) handleSaveAnswer(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateInExam {
		return w.WriteSimple(codeInvalidState, "not in an exam")
	}
	if ok, err := requireParams(w, params, 3); !ok {
		return err
	}
	roomID := params[0]
	qid, err := strconv.ParseInt(params[1], 10, 64)
	if err != nil {
		return w.WriteSimple(codeInvalidParams, "bad question id")
	}
	opt, err := validate.Option(params[2])
	if err != nil {
		return w.WriteSimple(codeInvalidParams, "bad answer option")
	}

	position := -1
	for i, id := range snap.QuestionIDs {
		if id == qid {
			position = i
			break
		}
	}
	if position < 0 {
		return w.WriteSimple(codeInvalidParams, "question not in this exam")
	}
	if snap.HasSubmitted {
		return w.WriteSimple(codeInvalidState, "already submitted")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return w.WriteSimple(codeRoomNotFound, "room not found")
	}
	if err != nil {
		return err
	}
	if room.Expired(time.Now()) {
		return w.WriteSimple(codeTimeExpired, "exam time has expired")
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.Answers[position] = opt
	})
	return w.WriteSimple(codeAnswerSaved, "")
}

// handleSubmitExam grades and records the caller's exam, including the
// duplicate-submission and deadline-expiry short-circuits and the
// auto-finish check once every participant has submitted.
func (s *Server) handleSubmitExam(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateInExam {
		return w.WriteSimple(codeInvalidState, "not in an exam")
	}
	if ok, err := requireParams(w, params, 1); !ok {
		return err
	}
	roomID := params[0]

	if snap.HasSubmitted {
		res, err := s.results.Get(ctx, roomID, snap.Username)
		if err != nil {
			return err
		}
		return w.WriteSimple(codeAlreadySubmit, fmt.Sprintf("%d|%d", res.Score, res.Total))
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return w.WriteSimple(codeRoomNotFound, "room not found")
	}
	if err != nil {
		return err
	}
	if room.Expired(time.Now()) {
		return w.WriteSimple(codeTimeExpired, "exam time has expired; the sweeper will finalize it")
	}

	score, total, err := s.gradeAndRecord(ctx, room, snap, time.Now(), "SUBMIT")
	if err != nil {
		return err
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.HasSubmitted = true
		sl.CurrentRoom = ""
		sl.State = registry.StateAuthenticated
	})

	if err := s.finishIfAllSubmitted(ctx, roomID); err != nil {
		s.logger.Error("failed auto-finish check", "room", roomID, "error", err)
	}

	return w.WriteSimple(codeSubmitOK, fmt.Sprintf("%d|%d", score, total))
}

// gradeAndRecord compares the slot's in-memory answers against the
// stored correct answers, inserts the result row, and returns the
// score. Shared by SUBMIT_EXAM and the sweeper's force-submit path
// (action distinguishes the audit trail entry).
func (s *Server) gradeAndRecord(ctx context.Context, room *domain.Room, snap registry.Slot, now time.Time, action string) (score, total int, err error) {
	correct, err := s.questions.GetByIDs(ctx, snap.QuestionIDs)
	if err != nil {
		return 0, 0, err
	}
	correctByID := make(map[int64]string, len(correct))
	for _, q := range correct {
		correctByID[q.ID] = q.CorrectOption
	}

	total = len(snap.QuestionIDs)
	parts := make([]string, total)
	for i, qid := range snap.QuestionIDs {
		given := "-"
		if i < len(snap.Answers) && snap.Answers[i] != "" {
			given = snap.Answers[i]
		}
		parts[i] = given
		if given == correctByID[qid] {
			score++
		}
	}

	var timeTaken int
	if room.StartTime != nil {
		timeTaken = int(now.Sub(*room.StartTime).Seconds())
	}

	result := &domain.ExamResult{
		RoomID:          room.ID,
		Username:        snap.Username,
		Score:           score,
		Total:           total,
		AnswerString:    strings.Join(parts, ","),
		SubmitTime:      now,
		TimeTakenSecond: timeTaken,
	}
	if err := s.results.Insert(ctx, result); err != nil && !errors.Is(err, domain.ErrAlreadySubmitted) {
		return 0, 0, err
	}

	s.auditLog(ctx, "INFO", snap.Username, action, fmt.Sprintf("%s score=%d/%d", room.ID, score, total))
	return score, total, nil
}

// finishIfAllSubmitted transitions a room to FINISHED once every
// participant has submitted.
func (s *Server) finishIfAllSubmitted(ctx context.Context, roomID string) error {
	participants, err := s.rooms.ListParticipants(ctx, roomID)
	if err != nil {
		return err
	}
	submitted, err := s.results.CountSubmissions(ctx, roomID)
	if err != nil {
		return err
	}
	if submitted < len(participants) {
		return nil
	}
	finished, err := s.rooms.Finish(ctx, roomID, time.Now())
	if err != nil {
		return err
	}
	if finished {
		s.auditLog(ctx, "INFO", "", "ROOM_FINISHED", roomID)
	}
	return nil
}

// handleViewResult returns the leaderboard for a finished room.
func (s *Server) handleViewResult(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateAuthenticated {
		return w.WriteSimple(codeInvalidState, "must be authenticated and idle to view a result")
	}
	if ok, err := requireParams(w, params, 1); !ok {
		return err
	}
	roomID := params[0]

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return w.WriteSimple(codeRoomNotFound, "room not found")
	}
	if err != nil {
		return err
	}
	if room.Status != domain.RoomFinished {
		return w.WriteSimple(codeRoomInProgress, "room has not finished yet")
	}

	entries, err := s.results.Leaderboard(ctx, roomID)
	if err != nil {
		return err
	}
	payload := resultPayload{Leaderboard: make([]leaderboardRow, len(entries))}
	for i, e := range entries {
		payload.Leaderboard[i] = leaderboardRow{
			Rank:       e.Rank,
			Username:   e.Username,
			Score:      e.Score,
			Total:      e.Total,
			SubmitTime: e.SubmitTime.Format(time.RFC3339),
			TimeTaken:  e.TimeTaken,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteData(codeResultData, body)
}
