// internal/handlers/otp/otp_handler.go
package otp

import (
	"context"
	"net/http"

	"vaultbank-service/internal/domain/otp"
	"vaultbank-service/internal/middleware"
	"vaultbank-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Issue(ctx context.Context, req *otp.IssueRequest) (*otp.IssueResult, error)
	Verify(ctx context.Context, req *otp.VerifyRequest) (*otp.VerifyResult, error)
	SendEmail(ctx context.Context, req *otp.SendEmailRequest) otp.SendEmailResponse
}

type OTPHandler struct {
	otpService Service
	logger     *zap.Logger
}

func NewOTPHandler(otpService Service, logger *zap.Logger) *OTPHandler {
	return &OTPHandler{
		otpService: otpService,
		logger:     logger,
	}
}

// SendOTPEmail emails a code generated by the caller. It always answers 200
// so the calling flow can carry on.
func (h *OTPHandler) SendOTPEmail(c *gin.Context) {
	var req otp.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send-otp-email body", zap.Error(err))
		c.JSON(http.StatusOK, otp.SendEmailResponse{Success: false, Skipped: true, Reason: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.otpService.SendEmail(c.Request.Context(), &req))
}

type loginOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SendLoginOTP is the login-only variant of SendOTPEmail.
func (h *OTPHandler) SendLoginOTP(c *gin.Context) {
	var req loginOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send-login-otp body", zap.Error(err))
		c.JSON(http.StatusOK, otp.SendEmailResponse{Success: false, Skipped: true, Reason: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.otpService.SendEmail(c.Request.Context(), &otp.SendEmailRequest{
		Email:  req.Email,
		OTP:    req.OTP,
		Action: otp.PurposeLogin,
	}))
}

// Issue generates and emails a code for the authenticated user.
func (h *OTPHandler) Issue(c *gin.Context) {
	var req otp.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}
	req.UserID = middleware.MustGetUserID(c)
	if req.Email == "" {
		req.Email = middleware.GetEmail(c)
	}

	result, err := h.otpService.Issue(c.Request.Context(), &req)
	if err != nil {
		if response.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("failed to issue otp", zap.String("user_id", req.UserID), zap.Error(err))
		}
		response.FromError(c, "failed to issue verification code", err)
		return
	}

	response.Success(c, http.StatusOK, "verification code issued", result)
}

// Verify checks a code for the authenticated user.
func (h *OTPHandler) Verify(c *gin.Context) {
	var req otp.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}
	req.UserID = middleware.MustGetUserID(c)

	result, err := h.otpService.Verify(c.Request.Context(), &req)
	if err != nil {
		if response.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("failed to verify otp", zap.String("user_id", req.UserID), zap.Error(err))
		}
		response.FromError(c, "verification failed", err)
		return
	}

	response.Success(c, http.StatusOK, "verification successful", result)
}
