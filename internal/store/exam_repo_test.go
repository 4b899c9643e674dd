package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/examsrv/examsrv/internal/domain"
)

func TestAssignDenseRanks_TiedScoresShareRank(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{Username: "alice", Score: 5},
		{Username: "bob", Score: 5},
		{Username: "carol", Score: 3},
	}
	assignDenseRanks(entries)

	assert.Equal(t, []int{1, 1, 2}, ranks(entries))
}

func TestAssignDenseRanks_NoTies(t *testing.T) {
	entries := []domain.LeaderboardEntry{
		{Username: "alice", Score: 9},
		{Username: "bob", Score: 7},
		{Username: "carol", Score: 3},
	}
	assignDenseRanks(entries)

	assert.Equal(t, []int{1, 2, 3}, ranks(entries))
}

func TestAssignDenseRanks_Empty(t *testing.T) {
	var entries []domain.LeaderboardEntry
	assignDenseRanks(entries)
	assert.Empty(t, entries)
}

func ranks(entries []domain.LeaderboardEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Rank
	}
	return out
}
