package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoom_Deadline(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r := &Room{StartTime: &start, TimeLimitMinutes: 10}
	assert.Equal(t, start.Add(10*time.Minute), r.Deadline())
}

func TestRoom_Expired_NotStarted(t *testing.T) {
	r := &Room{TimeLimitMinutes: 10}
	assert.False(t, r.Expired(time.Now()), "a room with no start_time has never expired")
}

func TestRoom_Expired_BeforeDeadline(t *testing.T) {
	start := time.Now()
	r := &Room{StartTime: &start, TimeLimitMinutes: 10}
	assert.False(t, r.Expired(start.Add(5*time.Minute)))
}

func TestRoom_Expired_AtDeadline(t *testing.T) {
	start := time.Now()
	r := &Room{StartTime: &start, TimeLimitMinutes: 10}
	assert.True(t, r.Expired(start.Add(10*time.Minute)), "deadline is inclusive: now >= start+limit expires")
}

func TestRoom_Expired_AfterDeadline(t *testing.T) {
	start := time.Now()
	r := &Room{StartTime: &start, TimeLimitMinutes: 10}
	assert.True(t, r.Expired(start.Add(11*time.Minute)))
}

func TestParseRoomFilter(t *testing.T) {
	cases := []struct {
		keyword    string
		wantStatus RoomStatus
		wantAll    bool
	}{
		{"", 0, true},
		{"ALL", 0, true},
		{"NOT_STARTED", RoomNotStarted, false},
		{"IN_PROGRESS", RoomInProgress, false},
		{"FINISHED", RoomFinished, false},
	}
	for _, c := range cases {
		status, all := ParseRoomFilter(c.keyword)
		assert.Equal(t, c.wantStatus, status, c.keyword)
		assert.Equal(t, c.wantAll, all, c.keyword)
	}
}

func TestParseRoomFilter_Invalid(t *testing.T) {
	_, all := ParseRoomFilter("BOGUS")
	assert.False(t, all)
}

func TestRoomStatus_String(t *testing.T) {
	assert.Equal(t, "NOT_STARTED", RoomNotStarted.String())
	assert.Equal(t, "IN_PROGRESS", RoomInProgress.String())
	assert.Equal(t, "FINISHED", RoomFinished.String())
	assert.Equal(t, "UNKNOWN", RoomStatus(99).String())
}

func TestPracticeSession_Expired(t *testing.T) {
	created := time.Now()
	p := &PracticeSession{CreatedAt: created, TimeLimitMinutes: 5}
	assert.False(t, p.Expired(created.Add(4*time.Minute)))
	assert.True(t, p.Expired(created.Add(5*time.Minute)))
}
