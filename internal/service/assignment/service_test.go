package assignment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vaultbank-service/internal/domain/support"
	xerrors "vaultbank-service/internal/pkg/errors"
	"vaultbank-service/internal/pkg/lock"
	"vaultbank-service/internal/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu       sync.Mutex
	agents   []support.Agent
	tickets  []support.Ticket
	ratings  []support.AgentRating
	known    map[string]bool
	assigned map[string]string
	statuses []string

	agentsErr error
	assignErr error
}

func newFakeRepo(agents ...support.Agent) *fakeRepo {
	return &fakeRepo{
		agents:   agents,
		known:    make(map[string]bool),
		assigned: make(map[string]string),
	}
}

func (r *fakeRepo) addTicket() string {
	id := uuid.NewString()
	r.known[id] = true
	return id
}

func (r *fakeRepo) ListOnlineAgents(ctx context.Context) ([]support.Agent, error) {
	return r.agents, r.agentsErr
}

func (r *fakeRepo) ListOpenAssignedTickets(ctx context.Context, statuses []string) ([]support.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = statuses
	return append([]support.Ticket(nil), r.tickets...), nil
}

func (r *fakeRepo) ListRatingsForAgents(ctx context.Context, agentIDs []string) ([]support.AgentRating, error) {
	return r.ratings, nil
}

func (r *fakeRepo) AssignTicket(ctx context.Context, ticketID, agentUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.assignErr != nil {
		return r.assignErr
	}
	if !r.known[ticketID] {
		return support.ErrTicketNotFound
	}
	if _, ok := r.assigned[ticketID]; ok {
		return support.ErrTicketAlreadyAssigned
	}
	r.assigned[ticketID] = agentUserID
	agent := agentUserID
	r.tickets = append(r.tickets, support.Ticket{ID: ticketID, Status: support.TicketStatusOpen, AssignedAgentID: &agent})
	return nil
}

type fakeNotifier struct {
	events map[string][]support.TicketAssignedEvent
}

func (n *fakeNotifier) NotifyTicketAssigned(agentUserID string, event support.TicketAssignedEvent) {
	if n.events == nil {
		n.events = make(map[string][]support.TicketAssignedEvent)
	}
	n.events[agentUserID] = append(n.events[agentUserID], event)
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (lock.Releaser, error) {
	return nil, lock.ErrNotAcquired
}

func newTestService(repo Repository, locker lock.Locker, notifier Notifier) (*Service, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewService(repo, locker, notifier, []string{"open"}, m, zap.NewNop()), m
}

func TestAssignPicksBestAgent(t *testing.T) {
	repo := newFakeRepo(
		support.Agent{ID: "1", UserID: "agent-a", Name: "Alice", IsOnline: true},
		support.Agent{ID: "2", UserID: "agent-b", Name: "Bob", IsOnline: true},
	)
	other := "agent-b"
	repo.tickets = []support.Ticket{
		{ID: "x", Status: support.TicketStatusOpen, AssignedAgentID: &other},
		{ID: "y", Status: support.TicketStatusOpen, AssignedAgentID: &other},
	}
	repo.ratings = []support.AgentRating{{AgentID: "agent-a", Rating: 5}, {AgentID: "agent-b", Rating: 5}}
	ticketID := repo.addTicket()
	notifier := &fakeNotifier{}
	svc, m := newTestService(repo, lock.Noop{}, notifier)

	result, err := svc.Assign(context.Background(), ticketID)
	require.NoError(t, err)

	assert.True(t, result.Assigned)
	require.NotNil(t, result.Agent)
	assert.Equal(t, "agent-a", result.Agent.UserID)
	assert.Equal(t, "Alice", result.Agent.Name)
	assert.InDelta(t, 20.0, result.Agent.Score, 1e-9)
	assert.Equal(t, "agent-a", repo.assigned[ticketID])
	assert.Equal(t, []string{"open"}, repo.statuses)

	require.Len(t, notifier.events["agent-a"], 1)
	assert.Equal(t, ticketID, notifier.events["agent-a"][0].TicketID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssignmentsTotal.WithLabelValues("assigned")))
}

func TestAssignNoAgentsWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	ticketID := repo.addTicket()
	svc, m := newTestService(repo, nil, nil)

	result, err := svc.Assign(context.Background(), ticketID)
	require.NoError(t, err)

	assert.False(t, result.Assigned)
	assert.Equal(t, ReasonNoAgents, result.Reason)
	assert.Nil(t, result.Agent)
	assert.Empty(t, repo.assigned)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssignmentsTotal.WithLabelValues("no_agents")))
}

func TestAssignSpreadsLoadAcrossCalls(t *testing.T) {
	repo := newFakeRepo(
		support.Agent{UserID: "agent-a", Name: "A"},
		support.Agent{UserID: "agent-b", Name: "B"},
	)
	svc, _ := newTestService(repo, lock.Noop{}, nil)

	first, err := svc.Assign(context.Background(), repo.addTicket())
	require.NoError(t, err)
	second, err := svc.Assign(context.Background(), repo.addTicket())
	require.NoError(t, err)

	assert.Equal(t, "agent-a", first.Agent.UserID)
	assert.Equal(t, "agent-b", second.Agent.UserID)
}

func TestAssignConcurrentCallsDoNotDoubleAssign(t *testing.T) {
	repo := newFakeRepo(support.Agent{UserID: "agent-a"}, support.Agent{UserID: "agent-b"})
	ticketID := repo.addTicket()
	svc, _ := newTestService(repo, lock.Noop{}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Assign(context.Background(), ticketID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, support.ErrTicketAlreadyAssigned):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 3, conflicts)
}

func TestAssignErrors(t *testing.T) {
	t.Run("invalid ticket id", func(t *testing.T) {
		svc, _ := newTestService(newFakeRepo(), lock.Noop{}, nil)
		_, err := svc.Assign(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		repo := newFakeRepo(support.Agent{UserID: "agent-a"})
		svc, _ := newTestService(repo, lock.Noop{}, nil)
		_, err := svc.Assign(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, xerrors.ErrNotFound)
	})

	t.Run("agent lookup fails", func(t *testing.T) {
		repo := newFakeRepo()
		repo.agentsErr = errors.New("connection refused")
		svc, _ := newTestService(repo, lock.Noop{}, nil)
		_, err := svc.Assign(context.Background(), repo.addTicket())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch agents")
	})

	t.Run("write fails", func(t *testing.T) {
		repo := newFakeRepo(support.Agent{UserID: "agent-a"})
		repo.assignErr = errors.New("deadlock detected")
		svc, _ := newTestService(repo, lock.Noop{}, nil)
		_, err := svc.Assign(context.Background(), repo.addTicket())
		assert.EqualError(t, err, "deadlock detected")
	})

	t.Run("lock busy", func(t *testing.T) {
		repo := newFakeRepo(support.Agent{UserID: "agent-a"})
		svc, _ := newTestService(repo, busyLocker{}, nil)
		_, err := svc.Assign(context.Background(), repo.addTicket())
		assert.ErrorIs(t, err, xerrors.ErrUnavailable)
		assert.Empty(t, repo.assigned)
	})
}
