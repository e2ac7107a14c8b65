package assignment

import (
	"testing"

	"vaultbank-service/internal/domain/support"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestScoreExamples(t *testing.T) {
	assert.InDelta(t, 20.0, Score(5.0, 0), 1e-9)
	assert.InDelta(t, 13.6, Score(4.8, 2), 1e-9)
	assert.InDelta(t, 17.0, Score(DefaultRating, 0), 1e-9)
	assert.InDelta(t, 17.0, Score(5.0, 1), 1e-9)
}

func TestScoreMonotonic(t *testing.T) {
	for load := 0; load < 10; load++ {
		assert.Greater(t, Score(4.0, load), Score(4.0, load+1))
	}
	for r := 1.0; r < 5.0; r += 0.5 {
		assert.Greater(t, Score(r+0.5, 3), Score(r, 3))
	}
}

func TestCountWorkload(t *testing.T) {
	tickets := []support.Ticket{
		{ID: "t1", AssignedAgentID: strPtr("a")},
		{ID: "t2", AssignedAgentID: strPtr("a")},
		{ID: "t3", AssignedAgentID: strPtr("b")},
		{ID: "t4"},
	}

	counts := CountWorkload(tickets)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, counts)
	assert.Zero(t, counts["c"])
}

func TestAggregateRatings(t *testing.T) {
	stats := AggregateRatings([]support.AgentRating{
		{AgentID: "a", Rating: 5},
		{AgentID: "a", Rating: 4},
		{AgentID: "b", Rating: 3},
	})

	require.Len(t, stats, 2)
	assert.InDelta(t, 4.5, stats["a"].Average, 1e-9)
	assert.Equal(t, 2, stats["a"].Count)
	assert.InDelta(t, 3.0, stats["b"].Average, 1e-9)
}

func TestRankPicksHighestScore(t *testing.T) {
	agents := []support.Agent{
		{UserID: "b", Name: "Agent B"},
		{UserID: "a", Name: "Agent A"},
	}
	workload := map[string]int{"b": 2}
	ratings := map[string]support.RatingStats{
		"a": {Average: 5.0, Count: 3},
		"b": {Average: 4.8, Count: 5},
	}

	ranked := Rank(agents, workload, ratings)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].UserID)
	assert.InDelta(t, 20.0, ranked[0].Score, 1e-9)
	assert.Equal(t, "b", ranked[1].UserID)
	assert.InDelta(t, 13.6, ranked[1].Score, 1e-9)
	assert.Equal(t, 2, ranked[1].Workload)
}

func TestRankUnratedAgentUsesDefault(t *testing.T) {
	ranked := Rank([]support.Agent{{UserID: "new"}}, map[string]int{"new": 4}, nil)

	require.Len(t, ranked, 1)
	assert.Equal(t, DefaultRating, ranked[0].Rating)
	assert.Zero(t, ranked[0].RatingCount)
	assert.InDelta(t, Score(DefaultRating, 4), ranked[0].Score, 1e-9)
}

func TestRankTieBreaksByUserID(t *testing.T) {
	// C is unrated and idle, D is top rated with one ticket. Both score 17.
	agents := []support.Agent{
		{UserID: "d", Name: "Agent D"},
		{UserID: "c", Name: "Agent C"},
	}
	workload := map[string]int{"d": 1}
	ratings := map[string]support.RatingStats{"d": {Average: 5.0, Count: 1}}

	for i := 0; i < 5; i++ {
		ranked := Rank(agents, workload, ratings)
		require.Len(t, ranked, 2)
		assert.InDelta(t, ranked[0].Score, ranked[1].Score, 1e-9)
		assert.Equal(t, "c", ranked[0].UserID)
	}
}
