// internal/handlers/compliance/compliance_handler.go
package compliance

import (
	"context"
	"net/http"

	"vaultbank-service/internal/domain/compliance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, req *compliance.NotificationRequest) (string, error)
}

type ComplianceHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewComplianceHandler(notifier Notifier, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// SendAMLNotification emails a compliance case update.
func (h *ComplianceHandler) SendAMLNotification(c *gin.Context) {
	var req compliance.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, compliance.NotificationResponse{Success: false, Error: err.Error()})
		return
	}

	id, err := h.notifier.Notify(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("failed to send aml notification",
			zap.String("type", string(req.NotificationType)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, compliance.NotificationResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, compliance.NotificationResponse{Success: true, EmailID: id})
}
