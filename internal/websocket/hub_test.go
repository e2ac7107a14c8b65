package websocket

import (
	"context"
	"testing"
	"time"

	"vaultbank-service/internal/pkg/jwt"
	"vaultbank-service/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestHub(t *testing.T) (*Hub, *jwt.Generator) {
	t.Helper()
	manager, err := jwt.LoadAndBuild(jwt.Config{Secret: testSecret, TTL: time.Hour})
	require.NoError(t, err)
	return NewHub(manager.Verifier, metrics.NewMetrics(prometheus.NewRegistry()), zap.NewNop()), manager.Generator
}

func TestRegisterAfterShutdownDoesNotBlock(t *testing.T) {
	hub, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	registered := make(chan bool, 1)
	go func() {
		registered <- hub.Register(NewClient(hub, nil, &ClientAuth{UserID: "agent-1"}))
	}()

	select {
	case ok := <-registered:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a stopped hub")
	}
	assert.Zero(t, hub.TotalClients())
}

func TestAuthenticateClient(t *testing.T) {
	hub, gen := newTestHub(t)

	token, _, err := gen.Generate("agent-1", "a@example.com", jwt.RoleCustomer, []string{jwt.RoleSupportAgent})
	require.NoError(t, err)
	auth, err := hub.AuthenticateClient(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", auth.UserID)
	assert.Equal(t, []string{jwt.RoleCustomer, jwt.RoleSupportAgent}, auth.Roles)

	token, _, err = gen.Generate("user-1", "", jwt.RoleCustomer, nil)
	require.NoError(t, err)
	_, err = hub.AuthenticateClient(token)
	assert.ErrorIs(t, err, ErrNotAgent)

	_, err = hub.AuthenticateClient("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
