// internal/handlers/assignment/assignment_handler.go
package assignment

import (
	"context"
	"net/http"

	"vaultbank-service/internal/domain/support"
	"vaultbank-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Assigner interface {
	Assign(ctx context.Context, ticketID string) (*support.AssignmentResult, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, ticketID string) (string, error)
}

type AssignmentHandler struct {
	assigner Assigner
	queue    Enqueuer
	logger   *zap.Logger
}

// NewAssignmentHandler builds the handler. queue may be nil when no Redis is
// configured, in which case enqueueing answers 503.
func NewAssignmentHandler(assigner Assigner, queue Enqueuer, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assigner: assigner,
		queue:    queue,
		logger:   logger,
	}
}

// AssignBestAgent assigns a ticket synchronously.
func (h *AssignmentHandler) AssignBestAgent(c *gin.Context) {
	var req support.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, support.AssignResponse{Assigned: false, Error: "ticketId is required"})
		return
	}

	result, err := h.assigner.Assign(c.Request.Context(), req.TicketID)
	if err != nil {
		status := response.StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("ticket assignment failed", zap.String("ticket_id", req.TicketID), zap.Error(err))
		}
		c.JSON(status, support.AssignResponse{Assigned: false, Error: err.Error()})
		return
	}

	if !result.Assigned {
		c.JSON(http.StatusOK, support.AssignResponse{Assigned: false, Error: result.Reason})
		return
	}

	score := result.Agent.Score
	c.JSON(http.StatusOK, support.AssignResponse{
		Success:   true,
		Assigned:  true,
		AgentName: result.Agent.Name,
		AgentID:   result.Agent.UserID,
		Score:     &score,
	})
}

// EnqueueAssignment hands the ticket to the stream worker.
func (h *AssignmentHandler) EnqueueAssignment(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, support.EnqueueResponse{Error: "assignment queue is not configured"})
		return
	}

	var req support.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, support.EnqueueResponse{Error: "ticketId is required"})
		return
	}
	if _, err := uuid.Parse(req.TicketID); err != nil {
		c.JSON(http.StatusBadRequest, support.EnqueueResponse{Error: "ticketId must be a uuid"})
		return
	}

	id, err := h.queue.Enqueue(c.Request.Context(), req.TicketID)
	if err != nil {
		h.logger.Error("failed to enqueue ticket", zap.String("ticket_id", req.TicketID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, support.EnqueueResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, support.EnqueueResponse{Queued: true, MessageID: id})
}
