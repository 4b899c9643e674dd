package registry

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal Conn for exercising broadcast without a real socket.
type fakeConn struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (f *fakeConn) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.Write(p)
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

// =============================================================================
// Allocate / Free
// =============================================================================

func TestAllocate_FirstFreeScan(t *testing.T) {
	r := New(3)
	idx, err := r.Allocate(&fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx2, err := r.Allocate(&fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, 1, idx2)
}

func TestAllocate_ReusesFreedSlot(t *testing.T) {
	r := New(2)
	idx0, _ := r.Allocate(&fakeConn{})
	_, _ = r.Allocate(&fakeConn{})
	r.Free(idx0)

	idx, err := r.Allocate(&fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, idx0, idx, "freed slot should be the first-free choice again")
}

func TestAllocate_FullTableRejected(t *testing.T) {
	r := New(1)
	_, err := r.Allocate(&fakeConn{})
	require.NoError(t, err)

	_, err = r.Allocate(&fakeConn{})
	assert.ErrorIs(t, err, ErrFull)
}

// =============================================================================
// View / Mutate
// =============================================================================

func TestMutate_UpdatesState(t *testing.T) {
	r := New(2)
	idx, _ := r.Allocate(&fakeConn{})

	r.Mutate(idx, func(s *Slot) {
		s.Username = "alice"
		s.State = StateAuthenticated
	})

	snap := r.View(idx)
	assert.Equal(t, "alice", snap.Username)
	assert.Equal(t, StateAuthenticated, snap.State)
}

func TestView_OutOfRangeReturnsZeroValue(t *testing.T) {
	r := New(1)
	snap := r.View(99)
	assert.False(t, snap.InUse)
}

// =============================================================================
// FindActiveByUsername
// =============================================================================

func TestFindActiveByUsername(t *testing.T) {
	r := New(2)
	idx, _ := r.Allocate(&fakeConn{})
	r.Mutate(idx, func(s *Slot) { s.Username = "bob" })

	found, ok := r.FindActiveByUsername("bob")
	assert.True(t, ok)
	assert.Equal(t, idx, found)

	_, ok = r.FindActiveByUsername("nobody")
	assert.False(t, ok)
}

// =============================================================================
// Broadcast
// =============================================================================

func TestBroadcastToRoom_OnlyMatchingSlots(t *testing.T) {
	r := New(3)
	connA := &fakeConn{}
	connB := &fakeConn{}
	connC := &fakeConn{}

	idxA, _ := r.Allocate(connA)
	idxB, _ := r.Allocate(connB)
	idxC, _ := r.Allocate(connC)

	r.Mutate(idxA, func(s *Slot) { s.CurrentRoom = "room1" })
	r.Mutate(idxB, func(s *Slot) { s.CurrentRoom = "room1" })
	r.Mutate(idxC, func(s *Slot) { s.CurrentRoom = "room2" })

	r.BroadcastToRoom("room1", []byte("125 START_OK room1\n"))

	assert.Equal(t, "125 START_OK room1\n", connA.String())
	assert.Equal(t, "125 START_OK room1\n", connB.String())
	assert.Empty(t, connC.String())
}

func TestStartExamBroadcast_TransitionsAndWrites(t *testing.T) {
	r := New(2)
	connA := &fakeConn{}
	connB := &fakeConn{}
	idxA, _ := r.Allocate(connA)
	idxB, _ := r.Allocate(connB)

	r.Mutate(idxA, func(s *Slot) {
		s.CurrentRoom = "room1"
		s.State = StateInRoom
		s.QuestionIDs = []int64{1, 2, 3}
	})
	r.Mutate(idxB, func(s *Slot) { s.CurrentRoom = "room2"; s.State = StateInRoom })

	r.StartExamBroadcast("room1", []byte("125 START_OK room1|2026-01-01T00:00:00Z\n"))

	snapA := r.View(idxA)
	assert.Equal(t, StateInExam, snapA.State)
	assert.Nil(t, snapA.QuestionIDs)
	assert.False(t, snapA.HasSubmitted)
	assert.Contains(t, connA.String(), "125 START_OK")

	snapB := r.View(idxB)
	assert.Equal(t, StateInRoom, snapB.State, "other rooms are untouched")
	assert.Empty(t, connB.String())
}

func TestForEachInRoom_CollectsStragglers(t *testing.T) {
	r := New(2)
	idxA, _ := r.Allocate(&fakeConn{})
	idxB, _ := r.Allocate(&fakeConn{})
	r.Mutate(idxA, func(s *Slot) { s.CurrentRoom = "r1"; s.Username = "alice" })
	r.Mutate(idxB, func(s *Slot) { s.CurrentRoom = "r1"; s.Username = "bob" })

	var seen []string
	r.ForEachInRoom("r1", func(idx int, s Slot) {
		seen = append(seen, s.Username)
	})

	assert.ElementsMatch(t, []string{"alice", "bob"}, seen)
}
