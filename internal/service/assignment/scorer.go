// internal/service/assignment/scorer.go
package assignment

import (
	"sort"

	"vaultbank-service/internal/domain/support"
)

// DefaultRating is assumed for agents with no ratings yet, slightly above
// the midpoint of the 1..5 scale.
const DefaultRating = 3.5

// Score is rating*2 - workload*3 + 10.
func Score(rating float64, workload int) float64 {
	return rating*2 - float64(workload)*3 + 10
}

// CountWorkload maps agent user id to the number of tickets it holds.
// Agents without tickets are absent, meaning zero.
func CountWorkload(tickets []support.Ticket) map[string]int {
	counts := make(map[string]int)
	for _, t := range tickets {
		if t.AssignedAgentID == nil || *t.AssignedAgentID == "" {
			continue
		}
		counts[*t.AssignedAgentID]++
	}
	return counts
}

// AggregateRatings averages ratings per agent.
func AggregateRatings(ratings []support.AgentRating) map[string]support.RatingStats {
	sums := make(map[string]int)
	stats := make(map[string]support.RatingStats)
	for _, r := range ratings {
		sums[r.AgentID] += r.Rating
		s := stats[r.AgentID]
		s.Count++
		stats[r.AgentID] = s
	}
	for id, s := range stats {
		s.Average = float64(sums[id]) / float64(s.Count)
		stats[id] = s
	}
	return stats
}

// Rank scores every agent and orders them best first. Equal scores are
// ordered by agent user id so the choice is stable across calls.
func Rank(agents []support.Agent, workload map[string]int, ratings map[string]support.RatingStats) []support.ScoredAgent {
	ranked := make([]support.ScoredAgent, 0, len(agents))
	for _, a := range agents {
		rating := DefaultRating
		stats, ok := ratings[a.UserID]
		if ok && stats.Count > 0 {
			rating = stats.Average
		}
		load := workload[a.UserID]

		ranked = append(ranked, support.ScoredAgent{
			Agent:       a,
			Workload:    load,
			Rating:      rating,
			RatingCount: stats.Count,
			Score:       Score(rating, load),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	return ranked
}
