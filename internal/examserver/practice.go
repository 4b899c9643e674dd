package examserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/examsrv/examsrv/internal/domain"
	"github.com/examsrv/examsrv/internal/protocol"
	"github.com/examsrv/examsrv/internal/registry"
)

// handlePractice mints an ephemeral, room-less quiz set held in the
// in-memory practice table.
func (s *Server) handlePractice(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateAuthenticated {
		return w.WriteSimple(codeInvalidState, "must be authenticated and idle to start practice")
	}
	if ok, err := requireParams(w, params, 2); !ok {
		return err
	}

	n, err := strconv.Atoi(params[0])
	if err != nil || n < minQuestions || n > maxQuestions {
		return w.WriteSimple(codeInvalidParams, "num_questions out of range")
	}
	t, err := strconv.Atoi(params[1])
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

	practiceID := fmt.Sprintf("practice_%d_%s", time.Now().Unix(), snap.Username)
	session := &domain.PracticeSession{
		ID:               practiceID,
		Username:         snap.Username,
		QuestionIDs:      make([]int64, len(picked)),
		CorrectAnswers:   make([]string, len(picked)),
		NumQuestions:     len(picked),
		TimeLimitMinutes: t,
		CreatedAt:        time.Now(),
	}
	for i, q := range picked {
		session.QuestionIDs[i] = q.ID
		session.CorrectAnswers[i] = q.CorrectOption
	}
	s.practice.put(session)

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.State = registry.StateInPractice
		sl.PracticeID = practiceID
	})

	payload := practicePayload{
		PracticeID: practiceID,
		TimeLimit:  t,
		Questions:  make([]examQuestion, len(picked)),
	}
	for i, q := range picked {
		payload.Questions[i] = questionToWire(q)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.WriteData(codePracticeData, body)
}

// handleSubmitPractice grades in one call from a comma-joined answer
// string, audits the outcome, and evicts the session.
func (s *Server) handleSubmitPractice(ctx context.Context, idx int, w *protocol.Writer, params []string) error {
	snap := s.registry.View(idx)
	if snap.State != registry.StateAuthenticated && snap.State != registry.StateInPractice {
		return w.WriteSimple(codeInvalidState, "no active practice session")
	}
	if ok, err := requireParams(w, params, 2); !ok {
		return err
	}
	practiceID := params[0]
	csvAnswers := params[1]

	session, ok := s.practice.get(practiceID)
	if !ok || session.Username != snap.Username {
		return w.WriteSimple(codeInvalidParams, "unknown or expired practice session")
	}

	answers := strings.Split(csvAnswers, ",")
	score := gradePractice(session, answers)

	result := &domain.PracticeResult{
		PracticeID: practiceID,
		Username:   snap.Username,
		Score:      score,
		Total:      session.NumQuestions,
		SubmitTime: time.Now(),
	}
	if err := s.practiceResults.Insert(ctx, result); err != nil {
		return err
	}
	s.practice.delete(practiceID)

	s.registry.Mutate(idx, func(sl *registry.Slot) {
		sl.State = registry.StateAuthenticated
		sl.PracticeID = ""
	})

	s.auditLog(ctx, "INFO", snap.Username, "SUBMIT_PRACTICE", fmt.Sprintf("%s score=%d/%d", practiceID, score, session.NumQuestions))
	return w.WriteSimple(codePracticeResult, fmt.Sprintf("%d|%d", score, session.NumQuestions))
}

// gradePractice compares answers positionally against session's
// correct answers; missing or short entries count wrong.
func gradePractice(session *domain.PracticeSession, answers []string) int {
	score := 0
	for i, correct := range session.CorrectAnswers {
		if i < len(answers) && strings.EqualFold(answers[i], correct) {
			score++
		}
	}
	return score
}
