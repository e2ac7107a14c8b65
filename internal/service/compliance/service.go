// internal/service/compliance/service.go
package compliance

import (
	"context"
	"fmt"

	"vaultbank-service/internal/domain/compliance"
	xerrors "vaultbank-service/internal/pkg/errors"
	"vaultbank-service/internal/pkg/metrics"
	"vaultbank-service/internal/service/email"

	"go.uber.org/zap"
)

type Mailer interface {
	Configured() bool
	Send(ctx context.Context, msg email.Message) (string, error)
}

// NotificationService emails AML case updates to customers.
type NotificationService struct {
	mailer  Mailer
	baseURL string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewNotificationService(mailer Mailer, baseURL string, m *metrics.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		mailer:  mailer,
		baseURL: baseURL,
		metrics: m,
		logger:  logger,
	}
}

// Notify sends the notification and returns the email id. Unlike OTP
// emails, an unconfigured mailer is an error here.
func (s *NotificationService) Notify(ctx context.Context, req *compliance.NotificationRequest) (string, error) {
	if s.mailer == nil || !s.mailer.Configured() {
		s.metrics.EmailsTotal.WithLabelValues("aml", "failed").Inc()
		return "", fmt.Errorf("email service is not configured: %w", xerrors.ErrNotConfigured)
	}

	msg, err := email.RenderAML(*req, s.baseURL)
	if err != nil {
		s.metrics.EmailsTotal.WithLabelValues("aml", "failed").Inc()
		return "", err
	}

	s.logger.Info("sending aml notification",
		zap.String("type", string(req.NotificationType)),
		zap.String("case_id", req.CaseID),
	)

	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.metrics.EmailsTotal.WithLabelValues("aml", "failed").Inc()
		return "", fmt.Errorf("failed to send aml notification: %w", err)
	}

	s.metrics.EmailsTotal.WithLabelValues("aml", "sent").Inc()
	return id, nil
}
