// internal/domain/support/entity.go
package support

import (
	"fmt"

	xerrors "vaultbank-service/internal/pkg/errors"
)

type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// ChatModeAgent is written to a ticket once a human agent owns it.
const ChatModeAgent = "agent"

var (
	ErrTicketNotFound        = fmt.Errorf("ticket not found: %w", xerrors.ErrNotFound)
	ErrTicketAlreadyAssigned = fmt.Errorf("ticket already assigned: %w", xerrors.ErrConflict)
)

// Agent is a support agent as listed in support_agents. UserID is the
// identity tickets reference through assigned_agent_id.
type Agent struct {
	ID       string `json:"id" db:"id"`
	UserID   string `json:"user_id" db:"user_id"`
	Name     string `json:"name" db:"name"`
	IsOnline bool   `json:"is_online" db:"is_online"`
}

type Ticket struct {
	ID              string       `json:"id" db:"id"`
	Status          TicketStatus `json:"status" db:"status"`
	AssignedAgentID *string      `json:"assigned_agent_id,omitempty" db:"assigned_agent_id"`
}

// AgentRating is one historical rating resolved to the agent who handled
// the rated ticket.
type AgentRating struct {
	AgentID string `db:"assigned_agent_id"`
	Rating  int    `db:"rating"`
}

// RatingStats is the per-agent aggregate fed into scoring.
type RatingStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ScoredAgent is a candidate with the signals that produced its score.
type ScoredAgent struct {
	Agent
	Workload    int     `json:"workload"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	Score       float64 `json:"score"`
}
