// internal/domain/support/dto.go
package support

// AssignRequest is the body of the assign-best-agent function.
type AssignRequest struct {
	TicketID string `json:"ticketId" binding:"required"`
}

// AssignmentResult is what the scorer reports back. Assigned is false with
// no error when no agent is online.
type AssignmentResult struct {
	TicketID string       `json:"ticket_id"`
	Assigned bool         `json:"assigned"`
	Agent    *ScoredAgent `json:"agent,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// AssignResponse is the JSON body returned by assign-best-agent.
type AssignResponse struct {
	Success   bool     `json:"success,omitempty"`
	Assigned  bool     `json:"assigned"`
	AgentName string   `json:"agentName,omitempty"`
	AgentID   string   `json:"agentId,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type EnqueueResponse struct {
	Queued    bool   `json:"queued"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TicketAssignedEvent is pushed to the assigned agent's desk.
type TicketAssignedEvent struct {
	TicketID string  `json:"ticket_id"`
	AgentID  string  `json:"agent_id"`
	Score    float64 `json:"score"`
	Workload int     `json:"workload"`
}
