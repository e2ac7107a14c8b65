// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"vaultbank-service/internal/domain/support"
	wstypes "vaultbank-service/internal/domain/websocket"
	"vaultbank-service/internal/pkg/jwt"
	"vaultbank-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by agent user ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage
	done      chan struct{}

	jwtVerifier *jwt.Verifier
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

type BroadcastMessage struct {
	UserIDs []string
	Message *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 256),
		done:        make(chan struct{}),
		jwtVerifier: jwtVerifier,
		metrics:     m,
		logger:      logger,
	}
}

// AuthenticateClient validates the JWT token and requires a desk role.
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	claims, err := h.jwtVerifier.Verify(token)
	if err != nil {
		h.logger.Debug("websocket token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if !claims.HasRole(jwt.RoleSupportAgent) && !claims.IsAdmin() {
		return nil, ErrNotAgent
	}

	var roles []string
	if claims.Role != "" {
		roles = append(roles, claims.Role)
	}
	roles = append(roles, claims.Roles...)
	return &ClientAuth{
		UserID: claims.UserID(),
		Email:  claims.Email,
		Roles:  roles,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	h.metrics.AgentConnections.Inc()

	h.logger.Info("agent connected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id": client.userID,
		"roles":   client.roles,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()
			h.metrics.AgentConnections.Dec()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("agent disconnected",
				zap.String("user_id", client.userID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// BroadcastMessage delivers msg to the listed users, or to everyone when
// UserIDs is nil.
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.UserIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				client.SendMessage(msg.Message)
			}
		}
		return
	}

	for _, userID := range msg.UserIDs {
		for client := range h.clients[userID] {
			client.SendMessage(msg.Message)
		}
	}
}

// NotifyTicketAssigned pushes the assignment to the agent's open desks. It
// never blocks the caller.
func (h *Hub) NotifyTicketAssigned(agentUserID string, event support.TicketAssignedEvent) {
	msg := &BroadcastMessage{
		UserIDs: []string{agentUserID},
		Message: wstypes.NewMessage(wstypes.EventTypeTicketAssigned, event),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("agent broadcast queue full, dropping event",
			zap.String("user_id", agentUserID),
			zap.String("ticket_id", event.TicketID),
		)
	}
}

func (h *Hub) GetConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// IsUserConnected checks if an agent has any active connections
func (h *Hub) IsUserConnected(userID string) bool {
	return h.GetConnectedClients(userID) > 0
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// Register hands client to the hub. It returns false once the hub has shut
// down, in which case the caller owns the connection.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// drop asks the hub to unregister client without blocking after shutdown.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.Close()
			h.metrics.AgentConnections.Dec()
		}
		delete(h.clients, userID)
	}
}
