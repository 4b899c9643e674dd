package examserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/examsrv/examsrv/internal/domain"
	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
	"github.com/examsrv/examsrv/internal/validate"
)

const (
	minQuestions = 5
	maxQuestions = 50
	minTimeLimit = 5
	maxTimeLimit = 120

	// defaultMaxParticipants mirrors the schema default
	// leaves unspecified by CREATE_ROOM's own params.
	defaultMaxParticipants = 50
)

// handleCreateRoom validates and creates a new room, picking its
// fixed question set up front.
func (s *Server) handleCreateRoom(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateAuthenticated {
		return w.WriteSimple(codeInvalidState, "must be authenticated and idle to create a room")
	}
	if ok, err := requireParams(w, params, 3); !ok {
		return err
	}

	name := params[0]
	n, err := strconv.Atoi(params[1])
	if err != nil || n < minQuestions || n > maxQuestions {
		return w.WriteSimple(codeInvalidParams, "num_questions out of range")
	}
	t, err := strconv.Atoi(params[2])
	if err != nil || t < minTimeLimit || t > maxTimeLimit {
		return w.WriteSimple(codeInvalidParams, "time_limit out of range")
	}

	pool, err := s.questions.Count(ctx)
	if err != nil {
		return err
	}
	if pool < n {
		return w.WriteSimple(codeInvalidParams, "question pool too small")
	}

	picked, err := s.questions.PickRandom(ctx, n)
	if err != nil {
		return err
	}
	ids := make([]int64, len(picked))
	for i, q := range picked {
		ids[i] = q.ID
	}

	room := &domain.Room{
		ID:               uuid.NewString(),
		Name:             name,
		Creator:          snap.Username,
		NumQuestions:     len(ids),
		TimeLimitMinutes: t,
		MaxParticipants:  defaultMaxParticipants,
	}
	if err := s.rooms.Create(ctx, room, ids); err != nil {
		return err
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.CurrentRoom = room.ID
		sl.State = registry.StateInRoom
	})

	s.auditLog(ctx, "INFO", snap.Username, "CREATE_ROOM", room.ID)
	return w.WriteSimple(codeRoomCreated, room.ID)
}

// handleListRooms returns the room catalogue, optionally filtered.
func (s *Server) handleListRooms(ctx context.Context, w *protocol.Writer, params []string) error {
	filter := ""
	if len(params) > 0 {
		filter = params[0]
	}
	if err := validate.Filter(filter); err != nil {
		return w.WriteSimple(codeInvalidParams, "invalid filter")
	}
	status, all := domain.ParseRoomFilter(filter)

	rooms, err := s.rooms.List(ctx, status, all)
	if err != nil {
		return err
	}

	payload := roomsPayload{Rooms: make([]roomListing, len(rooms))}
	for i, r := range rooms {
		payload.Rooms[i] = roomListing{
			RoomID:           r.ID,
			RoomName:         r.Name,
			Creator:          r.Creator,
			Status:           r.Status.String(),
			ParticipantCount: r.ParticipantCount,
			MaxParticipants:  r.MaxParticipants,
			NumQuestions:     r.NumQuestions,
			TimeLimitMinutes: r.TimeLimitMinutes,
			CreatedAt:        r.CreatedAt.Format(time.RFC3339),
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteData(codeRoomsData, body)
}

// handleJoinRoom adds the caller as a participant of an open room.
func (s *Server) handleJoinRoom(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateAuthenticated {
		return w.WriteSimple(codeInvalidState, "must be authenticated and idle to join a room")
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

	switch room.Status {
	case domain.RoomInProgress:
		return w.WriteSimple(codeRoomInProgress, "room already in progress")
	case domain.RoomFinished:
		return w.WriteSimple(codeRoomFinished, "room already finished")
	}
	if room.ParticipantCount >= room.MaxParticipants {
		return w.WriteSimple(codeRoomFull, "room is full")
	}

	if err := s.rooms.AddParticipant(ctx, roomID, snap.Username); err != nil {
		return err
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.CurrentRoom = roomID
		sl.State = registry.StateInRoom
	})

	s.auditLog(ctx, "INFO", snap.Username, "JOIN_ROOM", roomID)
	return w.WriteSimple(codeRoomJoinOK, roomID)
}

// handleLeaveRoom removes the caller from a room in any status,
// deleting the room outright if they are its creator and it has not
// started yet.
func (s *Server) handleLeaveRoom(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateInRoom {
		return w.WriteSimple(codeNotInRoom, "not in a room")
	}
	if ok, err := requireParams(w, params, 1); !ok {
		return err
	}
	roomID := params[0]

	isParticipant, err := s.rooms.IsParticipant(ctx, roomID, snap.Username)
	if err != nil {
		return err
	}
	if !isParticipant {
		return w.WriteSimple(codeNotInRoom, "not a participant of this room")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return w.WriteSimple(codeRoomNotFound, "room not found")
	}
	if err != nil {
		return err
	}

	if room.Creator == snap.Username && room.Status == domain.RoomNotStarted {
		if err := s.rooms.Delete(ctx, roomID); err != nil {
			return err
		}
		s.auditLog(ctx, "INFO", snap.Username, "ROOM_DELETED", roomID)
	} else {
		if err := s.rooms.RemoveParticipant(ctx, roomID, snap.Username); err != nil {
			return err
		}
	}

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.CurrentRoom = ""
		sl.State = registry.StateAuthenticated
	})

	s.auditLog(ctx, "INFO", snap.Username, "LEAVE_ROOM", roomID)
	return w.WriteSimple(codeRoomLeaveOK, "")
}

// handleStartExam transitions a room to in-progress and broadcasts the
// start to every participant via a registry-wide broadcast to every
// slot in the room.
func (s *Server) handleStartExam(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateInRoom {
		return w.WriteSimple(codeNotInRoom, "not in a room")
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
	if room.Creator != snap.Username {
		return w.WriteSimple(codeNotCreator, "only the creator may start the exam")
	}
	switch room.Status {
	case domain.RoomInProgress:
		return w.WriteSimple(codeRoomInProgress, "room already in progress")
	case domain.RoomFinished:
		return w.WriteSimple(codeRoomFinished, "room already finished")
	}

	startTime := time.Now()
	ok, err := s.rooms.Start(ctx, roomID, startTime)
	if err != nil {
		return err
	}
	if !ok {
		return w.WriteSimple(codeRoomInProgress, "room already in progress")
	}

	line := fmt.Sprintf("%d START_OK %s|%s\n", codeStartOK, roomID, startTime.Format(time.RFC3339))
	s.registry.StartExamBroadcast(roomID, []byte(line))

	s.auditLog(ctx, "INFO", snap.Username, "START_EXAM", roomID)
	return nil
}
