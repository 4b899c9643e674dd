package examserver

import (
	"context"
	"fmt"
	"time"

	"github.com/examsrv/examsrv/internal/domain"
	"github.com/examsrv/examsrv/internal/registry"
)

// slotAt pairs a registry index with the slot snapshot taken there,
// used to carry stragglers out of the locked ForEachInRoom scan.
type slotAt struct {
	idx  int
	slot registry.Slot
}

// RunSweeper wakes every interval until ctx is cancelled, performing
// the lifecycle sweep: force-submitting stragglers in
// expired rooms, finishing those rooms, expiring stale practice
// sessions, and deactivating idle sessions.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Server) sweepOnce(ctx context.Context) {
	now := time.Now()

	if err := s.sweepExpiredRooms(ctx, now); err != nil {
		s.logger.Error("sweeper: room pass failed", "error", err)
	}
	s.sweepExpiredPractice(now)
	if err := s.sweepIdleSessions(ctx, now); err != nil {
		s.logger.Error("sweeper: idle session pass failed", "error", err)
	}
}

// sweepExpiredRooms force-submits stragglers in rooms whose deadline
// has passed, then finalizes the room.
func (s *Server) sweepExpiredRooms(ctx context.Context, now time.Time) error {
	rooms, err := s.rooms.ListExpiredInProgress(ctx, now)
	if err != nil {
		return err
	}

	for i := range rooms {
		room := rooms[i]

		var stragglers []slotAt
		s.registry.ForEachInRoom(room.ID, func(idx int, sl registry.Slot) {
			if !sl.HasSubmitted {
				stragglers = append(stragglers, slotAt{idx: idx, slot: sl})
			}
		})

		for _, st := range stragglers {
			if len(st.slot.QuestionIDs) == 0 {
				continue // never called GET_EXAM; nothing graded for this slot
			}
			if _, _, err := s.gradeAndRecord(ctx, &room, st.slot, now, "FORCE_SUBMIT"); err != nil {
				s.logger.Error("sweeper: force_submit failed", "room", room.ID, "username", st.slot.Username, "error", err)
				continue
			}
			s.registry.Mutate(st.idx, func(sl *registry.Slot) {
				sl.HasSubmitted = true
				sl.CurrentRoom = ""
				sl.State = registry.StateAuthenticated
			})
		}

		finished, err := s.rooms.Finish(ctx, room.ID, now)
		if err != nil {
			return err
		}
		if finished {
			s.auditLog(ctx, "INFO", "", "ROOM_FINISHED", room.ID)
		}
	}
	return nil
}

// sweepExpiredPractice grades expired, unsubmitted practice sessions:
// a session past its deadline is graded as all-wrong (no partial
// answers are ever held for practice, since SUBMIT_PRACTICE is the
// only write path) and evicted.
func (s *Server) sweepExpiredPractice(now time.Time) {
	for _, p := range s.practice.expired(now) {
		result := &domain.PracticeResult{
			PracticeID: p.ID,
			Username:   p.Username,
			Score:      0,
			Total:      p.NumQuestions,
			SubmitTime: now,
		}
		ctx := context.Background()
		if err := s.practiceResults.Insert(ctx, result); err != nil {
			s.logger.Error("sweeper: practice expiry insert failed", "practice_id", p.ID, "error", err)
			continue
		}
		s.practice.delete(p.ID)
		s.registry.ResetPractice(p.ID)
		s.auditLog(ctx, "INFO", p.Username, "PRACTICE_EXPIRED", p.ID)
	}
}

// sweepIdleSessions deactivates sessions that have gone quiet: a session idle longer than SessionIdleTimeout is
// deactivated and its slot (if still connected) dropped back to
// StateConnected.
func (s *Server) sweepIdleSessions(ctx context.Context, now time.Time) error {
	if s.sessionIdleTimeout <= 0 {
		return nil
	}
	cutoff := now.Add(-s.sessionIdleTimeout)
	usernames, err := s.sessions.DeactivateIdleSince(ctx, cutoff)
	if err != nil {
		return err
	}
	notice := []byte(fmt.Sprintf("%d SESSION_EXPIRED\n", codeSessionExpired))
	for _, u := range usernames {
		s.registry.Deauthenticate(u, notice)
		s.auditLog(ctx, "INFO", u, "SESSION_IDLE_TIMEOUT", "")
	}
	return nil
}
