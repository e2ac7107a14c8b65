package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vaultbank-service/internal/domain/support"
	wstypes "vaultbank-service/internal/domain/websocket"
	"vaultbank-service/internal/middleware"
	"vaultbank-service/internal/pkg/jwt"
	"vaultbank-service/internal/pkg/metrics"
	ws "vaultbank-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setup(t *testing.T) (*ws.Hub, *jwt.Generator, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := jwt.LoadAndBuild(jwt.Config{Secret: testSecret, TTL: time.Hour})
	require.NoError(t, err)

	hub := ws.NewHub(manager.Verifier, metrics.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/agents", NewWebSocketHandler(hub, zap.NewNop()).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, manager.Generator, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/agents"
}

func readMessage(t *testing.T, conn *websocket.Conn) *wstypes.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := wstypes.ParseMessage(data)
	require.NoError(t, err)
	return msg
}

func TestAgentReceivesAssignment(t *testing.T) {
	hub, gen, url := setup(t)

	token, _, err := gen.Generate("agent-1", "a@example.com", jwt.RoleSupportAgent, nil)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, wstypes.EventTypeConnected, readMessage(t, conn).Type)
	assert.True(t, hub.IsUserConnected("agent-1"))

	hub.NotifyTicketAssigned("agent-1", support.TicketAssignedEvent{
		TicketID: "8d1f0a52-9a39-4c1b-bb8e-2f0c3c1c9d10",
		AgentID:  "agent-1",
		Score:    17,
	})

	msg := readMessage(t, conn)
	assert.Equal(t, wstypes.EventTypeTicketAssigned, msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "8d1f0a52-9a39-4c1b-bb8e-2f0c3c1c9d10", data["ticket_id"])
	assert.Equal(t, float64(17), data["score"])
}

func TestGetStatsReportsCallerConnections(t *testing.T) {
	hub, gen, url := setup(t)

	token, _, err := gen.Generate("agent-1", "", jwt.RoleSupportAgent, nil)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	verifier := jwt.NewVerifier([]byte(testSecret), "", "")
	r := gin.New()
	r.GET("/stats", append(middleware.NewAuthMiddleware(verifier).AgentOnly(),
		NewWebSocketHandler(hub, zap.NewNop()).GetStats)...)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Total     int  `json:"total_connections"`
			Mine      int  `json:"my_connections"`
			Connected bool `json:"connected"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Total)
	assert.Equal(t, 1, body.Data.Mine)
	assert.True(t, body.Data.Connected)
}

func TestRejectsCustomerToken(t *testing.T) {
	_, gen, url := setup(t)

	token, _, err := gen.Generate("user-1", "", jwt.RoleCustomer, nil)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRejectsMissingOrBadToken(t *testing.T) {
	_, _, url := setup(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
