package examserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/examsrv/examsrv/internal/domain"
)

func TestOrderQuestions_PreservesRequestedOrder(t *testing.T) {
	rows := []domain.Question{
		{ID: 3, Text: "third"},
		{ID: 1, Text: "first"},
		{ID: 2, Text: "second"},
	}
	ordered := orderQuestions([]int64{1, 2, 3}, rows)

	assert.Equal(t, []string{"first", "second", "third"}, texts(ordered))
}

func TestOrderQuestions_SkipsMissingID(t *testing.T) {
	rows := []domain.Question{{ID: 1, Text: "first"}}
	ordered := orderQuestions([]int64{1, 99}, rows)
	assert.Equal(t, []string{"first"}, texts(ordered))
}

func texts(qs []domain.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Text
	}
	return out
}

func TestQuestionToWire_NeverLeaksCorrectAnswer(t *testing.T) {
	q := domain.Question{
		ID: 1, Text: "2+2?",
		OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6",
		CorrectOption: "B",
	}
	wire := questionToWire(q)

	assert.Equal(t, []string{"A. 3", "B. 4", "C. 5", "D. 6"}, wire.Options)
	assert.Equal(t, int64(1), wire.QuestionID)
}

func TestGradePractice_AllCorrect(t *testing.T) {
	session := &domain.PracticeSession{CorrectAnswers: []string{"A", "B", "C"}, NumQuestions: 3}
	score := gradePractice(session, []string{"A", "B", "C"})
	assert.Equal(t, 3, score)
}

func TestGradePractice_ShortAnswersCountWrong(t *testing.T) {
	session := &domain.PracticeSession{CorrectAnswers: []string{"A", "B", "C"}, NumQuestions: 3}
	score := gradePractice(session, []string{"A"})
	assert.Equal(t, 1, score)
}

func TestGradePractice_CaseInsensitive(t *testing.T) {
	session := &domain.PracticeSession{CorrectAnswers: []string{"A"}, NumQuestions: 1}
	score := gradePractice(session, []string{"a"})
	assert.Equal(t, 1, score)
}

func TestPracticeTable_PutGetDelete(t *testing.T) {
	pt := newPracticeTable()
	session := &domain.PracticeSession{ID: "practice_1_alice", Username: "alice", NumQuestions: 5}
	pt.put(session)

	got, ok := pt.get("practice_1_alice")
	assert.True(t, ok)
	assert.Equal(t, session, got)

	pt.delete("practice_1_alice")
	_, ok = pt.get("practice_1_alice")
	assert.False(t, ok)
}

func TestPracticeTable_Expired(t *testing.T) {
	pt := newPracticeTable()
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	pt.put(&domain.PracticeSession{ID: "a", CreatedAt: created, TimeLimitMinutes: 5})
	pt.put(&domain.PracticeSession{ID: "b", CreatedAt: created, TimeLimitMinutes: 30})

	expired := pt.expired(created.Add(10 * time.Minute))
	assert.Len(t, expired, 1)
	assert.Equal(t, "a", expired[0].ID)
}
