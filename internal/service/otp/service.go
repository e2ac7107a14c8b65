// internal/service/otp/service.go
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"vaultbank-service/internal/config"
	"vaultbank-service/internal/domain/otp"
	"vaultbank-service/internal/pkg/metrics"
	"vaultbank-service/internal/pkg/ratelimit"
	"vaultbank-service/internal/service/email"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeMin   = 100000
	codeRange = 900000

	ReasonNotConfigured = "Email service not configured"
	reasonNoRecipient   = "No email address on file"
)

type Repository interface {
	Create(ctx context.Context, c *otp.Code) error
	ListActive(ctx context.Context, userID string, now time.Time) ([]otp.Code, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Mailer interface {
	Configured() bool
	Send(ctx context.Context, msg email.Message) (string, error)
}

type Limiter interface {
	Cooldown(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, key string) error
}

type Service struct {
	repo    Repository
	mailer  Mailer
	limiter Limiter
	cfg     config.OTPConfig
	bypass  map[string]bool
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the issuer/verifier. limiter may be nil, which disables
// the resend cooldown.
func NewService(repo Repository, mailer Mailer, limiter Limiter, cfg config.OTPConfig, m *metrics.Metrics, logger *zap.Logger) *Service {
	bypass := make(map[string]bool, len(cfg.BypassCodes))
	for _, c := range cfg.BypassCodes {
		bypass[c] = true
	}
	return &Service{
		repo:    repo,
		mailer:  mailer,
		limiter: limiter,
		cfg:     cfg,
		bypass:  bypass,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Issue stores a fresh code for the caller and emails it. A failed email
// does not fail issuance. The resend cooldown is given back when no code
// could be stored.
func (s *Service) Issue(ctx context.Context, req *otp.IssueRequest) (*otp.IssueResult, error) {
	if !req.Purpose.Valid() {
		return nil, otp.ErrBadPurpose
	}

	claimed, err := s.checkCooldown(ctx, req.UserID, req.Purpose)
	if err != nil {
		return nil, err
	}
	stored := false
	if claimed {
		defer func() {
			if !stored {
				s.releaseCooldown(ctx, req.UserID, req.Purpose)
			}
		}()
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}

	record := &otp.Code{
		UserID:    req.UserID,
		Purpose:   req.Purpose,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	stored = true
	s.metrics.OTPIssuedTotal.WithLabelValues(string(req.Purpose)).Inc()

	result := &otp.IssueResult{ExpiresAt: record.ExpiresAt}

	if req.Email == "" {
		result.SkippedReason = reasonNoRecipient
		return result, nil
	}

	sent := s.SendEmail(ctx, &otp.SendEmailRequest{
		Email:  req.Email,
		OTP:    code,
		Action: req.Purpose,
		EmailDetails: otp.EmailDetails{
			AccountType:       req.AccountType,
			AccountIdentifier: req.AccountIdentifier,
			Amount:            req.Amount,
			Currency:          req.Currency,
		},
	})
	result.EmailSent = sent.Success
	result.EmailID = sent.EmailID
	result.SkippedReason = sent.Reason

	s.logger.Info("otp issued",
		zap.String("user_id", req.UserID),
		zap.String("purpose", string(req.Purpose)),
		zap.Bool("email_sent", result.EmailSent),
	)
	return result, nil
}

// SendEmail renders and sends an already generated code. It never returns
// an error: problems come back as a skipped response.
func (s *Service) SendEmail(ctx context.Context, req *otp.SendEmailRequest) otp.SendEmailResponse {
	if s.mailer == nil || !s.mailer.Configured() {
		s.metrics.EmailsTotal.WithLabelValues("otp", "skipped").Inc()
		return otp.SendEmailResponse{Success: false, Skipped: true, Reason: ReasonNotConfigured}
	}
	if req.Email == "" || req.OTP == "" {
		s.metrics.EmailsTotal.WithLabelValues("otp", "skipped").Inc()
		return otp.SendEmailResponse{Success: false, Skipped: true, Reason: "email and otp are required"}
	}

	msg, err := email.RenderOTP(req.Email, req.OTP, req.Action, req.EmailDetails, s.cfg.TTL)
	if err != nil {
		s.logger.Error("failed to render otp email", zap.Error(err))
		s.metrics.EmailsTotal.WithLabelValues("otp", "failed").Inc()
		return otp.SendEmailResponse{Success: false, Skipped: true, Reason: err.Error()}
	}

	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		s.logger.Error("failed to send otp email",
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		s.metrics.EmailsTotal.WithLabelValues("otp", "failed").Inc()
		return otp.SendEmailResponse{Success: false, Skipped: true, Reason: fmt.Sprintf("Email service error: %v", err)}
	}

	s.metrics.EmailsTotal.WithLabelValues("otp", "sent").Inc()
	s.logger.Info("otp email sent", zap.String("email_id", id), zap.String("action", string(req.Action)))
	return otp.SendEmailResponse{Success: true, EmailID: id}
}

// Verify checks code against the caller's live codes and consumes the
// match.
func (s *Service) Verify(ctx context.Context, req *otp.VerifyRequest) (*otp.VerifyResult, error) {
	code := strings.TrimSpace(req.Code)
	if !otp.IsWellFormed(code) {
		s.metrics.OTPVerificationsTotal.WithLabelValues("malformed").Inc()
		return nil, otp.ErrMalformed
	}

	if s.cfg.TestMode && s.bypass[code] {
		s.logger.Warn("otp bypass code accepted", zap.String("user_id", req.UserID))
		s.metrics.OTPVerificationsTotal.WithLabelValues("bypass").Inc()
		return &otp.VerifyResult{Verified: true, Method: otp.MethodBypass}, nil
	}

	now := s.now()
	codes, err := s.repo.ListActive(ctx, req.UserID, now)
	if err != nil {
		return nil, err
	}

	for i := range codes {
		c := &codes[i]
		if c.Expired(now) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) != nil {
			continue
		}

		deleted, err := s.repo.Delete(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if !deleted {
			break
		}

		s.metrics.OTPVerificationsTotal.WithLabelValues("verified").Inc()
		s.logger.Info("otp verified", zap.String("user_id", req.UserID), zap.String("purpose", string(c.Purpose)))
		return &otp.VerifyResult{Verified: true, Method: otp.MethodCode}, nil
	}

	s.metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
	return nil, otp.ErrInvalidCode
}

// PurgeExpired deletes codes past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.OTPPurgedTotal.Add(float64(n))
	return n, nil
}

// checkCooldown claims the resend window and reports whether it holds it.
func (s *Service) checkCooldown(ctx context.Context, userID string, purpose otp.Purpose) (bool, error) {
	if s.limiter == nil || s.cfg.ResendCooldown <= 0 {
		return false, nil
	}

	ok, left, err := s.limiter.Cooldown(ctx, ratelimit.OTPCooldownKey(userID, string(purpose)), s.cfg.ResendCooldown)
	if err != nil {
		// Fail open.
		s.logger.Warn("otp cooldown check failed", zap.Error(err))
		return false, nil
	}
	if !ok {
		return false, fmt.Errorf("%w (retry in %ds)", otp.ErrCooldown, int(left.Round(time.Second).Seconds()))
	}
	return true, nil
}

func (s *Service) releaseCooldown(ctx context.Context, userID string, purpose otp.Purpose) {
	if err := s.limiter.Release(context.WithoutCancel(ctx), ratelimit.OTPCooldownKey(userID, string(purpose))); err != nil {
		s.logger.Warn("otp cooldown release failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
