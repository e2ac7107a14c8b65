// internal/app/router.go
package app

import (
	assignmentHandler "vaultbank-service/internal/handlers/assignment"
	complianceHandler "vaultbank-service/internal/handlers/compliance"
	otpHandler "vaultbank-service/internal/handlers/otp"
	wsHandler "vaultbank-service/internal/handlers/websocket"
	"vaultbank-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	AssignmentHandler *assignmentHandler.AssignmentHandler
	OTPHandler        *otpHandler.OTPHandler
	ComplianceHandler *complianceHandler.ComplianceHandler
	WSHandler         *wsHandler.WebSocketHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))
	r.Use(middleware.CORSMiddleware())

	// ==================== Edge Functions ====================
	functions := r.Group("/functions/v1")
	{
		functions.Any("/assign-best-agent", h.AssignmentHandler.AssignBestAgent)
		functions.POST("/enqueue-assignment", h.AssignmentHandler.EnqueueAssignment)
		functions.POST("/send-otp-email", h.OTPHandler.SendOTPEmail)
		functions.POST("/send-login-otp", h.OTPHandler.SendLoginOTP)
		functions.POST("/send-aml-notification", h.ComplianceHandler.SendAMLNotification)
	}

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== OTP ====================
	otp := api.Group("/otp")
	otp.Use(h.AuthMiddleware.Auth())
	{
		otp.POST("/issue", h.OTPHandler.Issue)
		otp.POST("/verify", h.OTPHandler.Verify)
	}

	// ==================== Support Desk ====================
	support := api.Group("/support")
	support.Use(h.AuthMiddleware.AgentOnly()...)
	{
		support.GET("/ws/stats", h.WSHandler.GetStats)
	}

	// ==================== WebSocket ====================
	r.GET("/ws/agents", h.WSHandler.HandleConnection)

	// ==================== Metrics ====================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
