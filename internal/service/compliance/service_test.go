package compliance

import (
	"context"
	"errors"
	"testing"

	"vaultbank-service/internal/domain/compliance"
	xerrors "vaultbank-service/internal/pkg/errors"
	"vaultbank-service/internal/pkg/metrics"
	"vaultbank-service/internal/service/email"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMailer struct {
	configured bool
	err        error
	sent       []email.Message
}

func (m *stubMailer) Configured() bool { return m.configured }

func (m *stubMailer) Send(ctx context.Context, msg email.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "01HZX", nil
}

func newService(mailer Mailer) *NotificationService {
	return NewNotificationService(mailer, "https://bank.example.com", metrics.NewMetrics(prometheus.NewRegistry()), zap.NewNop())
}

func TestNotify(t *testing.T) {
	mailer := &stubMailer{configured: true}
	id, err := newService(mailer).Notify(context.Background(), &compliance.NotificationRequest{
		Email:            "client@example.com",
		UserName:         "Sam",
		NotificationType: compliance.TypeTransfersUnlocked,
		TransferAmount:   "5000",
	})
	require.NoError(t, err)

	assert.Equal(t, "01HZX", id)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "client@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTMLBody, "up to $5000")
}

func TestNotifyNotConfigured(t *testing.T) {
	_, err := newService(&stubMailer{}).Notify(context.Background(), &compliance.NotificationRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, xerrors.ErrNotConfigured)
}

func TestNotifySendFailure(t *testing.T) {
	_, err := newService(&stubMailer{configured: true, err: errors.New("boom")}).Notify(context.Background(), &compliance.NotificationRequest{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
