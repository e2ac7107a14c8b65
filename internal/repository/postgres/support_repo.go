// internal/repository/postgres/support_repo.go
package postgres

import (
	"context"
	"fmt"

	"vaultbank-service/internal/domain/support"

	"github.com/jackc/pgx/v5"
)

type SupportRepository struct {
	db *DB
}

func NewSupportRepository(db *DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// ListOnlineAgents returns every agent currently flagged online.
func (r *SupportRepository) ListOnlineAgents(ctx context.Context) ([]support.Agent, error) {
	query := `
		SELECT id::text, user_id::text, name, is_online
		FROM support_agents
		WHERE is_online = TRUE
		ORDER BY user_id
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list online agents: %w", err)
	}
	defer rows.Close()

	var agents []support.Agent
	for rows.Next() {
		var a support.Agent
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.IsOnline); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}

	return agents, nil
}

// ListOpenAssignedTickets returns tickets in one of statuses that already
// have an agent. These make up the workload.
func (r *SupportRepository) ListOpenAssignedTickets(ctx context.Context, statuses []string) ([]support.Ticket, error) {
	query := `
		SELECT id::text, status, assigned_agent_id::text
		FROM support_tickets
		WHERE status = ANY($1::text[])
		  AND assigned_agent_id IS NOT NULL
	`

	rows, err := r.db.Pool().Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list open tickets: %w", err)
	}
	defer rows.Close()

	var tickets []support.Ticket
	for rows.Next() {
		var t support.Ticket
		if err := rows.Scan(&t.ID, &t.Status, &t.AssignedAgentID); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// ListRatingsForAgents resolves each rating through its ticket to the agent
// that handled it, restricted to agentIDs.
func (r *SupportRepository) ListRatingsForAgents(ctx context.Context, agentIDs []string) ([]support.AgentRating, error) {
	if len(agentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT t.assigned_agent_id::text, r.rating
		FROM support_ratings r
		JOIN support_tickets t ON t.id = r.ticket_id
		WHERE t.assigned_agent_id::text = ANY($1::text[])
	`

	rows, err := r.db.Pool().Query(ctx, query, agentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []support.AgentRating
	for rows.Next() {
		var ar support.AgentRating
		if err := rows.Scan(&ar.AgentID, &ar.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, ar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return ratings, nil
}

// AssignTicket hands ticketID to agentUserID only if nobody owns it yet.
func (r *SupportRepository) AssignTicket(ctx context.Context, ticketID, agentUserID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE support_tickets
			SET assigned_agent_id = $2::uuid,
			    chat_mode = $3,
			    agent_online = TRUE,
			    updated_at = NOW()
			WHERE id = $1::uuid
			  AND assigned_agent_id IS NULL
		`, ticketID, agentUserID, support.ChatModeAgent)
		if err != nil {
			return fmt.Errorf("failed to assign ticket: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM support_tickets WHERE id = $1::uuid)`, ticketID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check ticket: %w", err)
		}
		if !exists {
			return support.ErrTicketNotFound
		}
		return support.ErrTicketAlreadyAssigned
	})
}
