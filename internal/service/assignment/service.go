// internal/service/assignment/service.go
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaultbank-service/internal/domain/support"
	xerrors "vaultbank-service/internal/pkg/errors"
	"vaultbank-service/internal/pkg/lock"
	"vaultbank-service/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockKey guards the read-decide-write of a single assignment.
const LockKey = "support:assign:lock"

// ReasonNoAgents is reported when nobody is online.
const ReasonNoAgents = "No agents available"

var ErrInvalidTicketID = fmt.Errorf("ticketId must be a uuid: %w", xerrors.ErrInvalidInput)

type Repository interface {
	ListOnlineAgents(ctx context.Context) ([]support.Agent, error)
	ListOpenAssignedTickets(ctx context.Context, statuses []string) ([]support.Ticket, error)
	ListRatingsForAgents(ctx context.Context, agentIDs []string) ([]support.AgentRating, error)
	AssignTicket(ctx context.Context, ticketID, agentUserID string) error
}

// Notifier tells a connected agent about a new ticket.
type Notifier interface {
	NotifyTicketAssigned(agentUserID string, event support.TicketAssignedEvent)
}

type Service struct {
	repo     Repository
	locker   lock.Locker
	notifier Notifier
	statuses []string
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewService(
	repo Repository,
	locker lock.Locker,
	notifier Notifier,
	statuses []string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		statuses: statuses,
		metrics:  m,
		logger:   logger,
	}
}

// Assign picks the best online agent for ticketID and records it on the
// ticket. No online agent is not an error: the result has Assigned false and
// the ticket is left alone.
func (s *Service) Assign(ctx context.Context, ticketID string) (*support.AssignmentResult, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		s.metrics.AssignmentsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidTicketID
	}

	start := time.Now()
	defer func() {
		s.metrics.AssignmentDuration.Observe(time.Since(start).Seconds())
	}()

	lease, err := s.locker.Acquire(ctx, LockKey)
	s.metrics.AssignmentLockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.AssignmentsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("assignment busy: %w", xerrors.ErrUnavailable)
		}
		return nil, fmt.Errorf("failed to acquire assignment lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release assignment lock", zap.Error(err))
		}
	}()

	result, err := s.assignLocked(ctx, ticketID)
	switch {
	case err == nil && result.Assigned:
		s.metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
	case err == nil:
		s.metrics.AssignmentsTotal.WithLabelValues("no_agents").Inc()
	case errors.Is(err, support.ErrTicketAlreadyAssigned):
		s.metrics.AssignmentsTotal.WithLabelValues("conflict").Inc()
	case errors.Is(err, support.ErrTicketNotFound):
		s.metrics.AssignmentsTotal.WithLabelValues("not_found").Inc()
	default:
		s.metrics.AssignmentsTotal.WithLabelValues("error").Inc()
	}
	return result, err
}

func (s *Service) assignLocked(ctx context.Context, ticketID string) (*support.AssignmentResult, error) {
	agents, err := s.repo.ListOnlineAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agents: %w", err)
	}
	s.metrics.OnlineAgents.Set(float64(len(agents)))

	if len(agents) == 0 {
		s.logger.Info("no agents available for ticket", zap.String("ticket_id", ticketID))
		return &support.AssignmentResult{TicketID: ticketID, Reason: ReasonNoAgents}, nil
	}

	tickets, err := s.repo.ListOpenAssignedTickets(ctx, s.statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workload: %w", err)
	}

	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		ids = append(ids, a.UserID)
	}
	ratings, err := s.repo.ListRatingsForAgents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}

	ranked := Rank(agents, CountWorkload(tickets), AggregateRatings(ratings))
	best := ranked[0]

	if err := s.repo.AssignTicket(ctx, ticketID, best.UserID); err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticketID),
		zap.String("agent_id", best.UserID),
		zap.String("agent_name", best.Name),
		zap.Float64("score", best.Score),
		zap.Int("workload", best.Workload),
		zap.Float64("rating", best.Rating),
		zap.Int("candidates", len(ranked)),
	)

	if s.notifier != nil {
		s.notifier.NotifyTicketAssigned(best.UserID, support.TicketAssignedEvent{
			TicketID: ticketID,
			AgentID:  best.UserID,
			Score:    best.Score,
			Workload: best.Workload,
		})
	}

	return &support.AssignmentResult{TicketID: ticketID, Assigned: true, Agent: &best}, nil
}
