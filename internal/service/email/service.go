// internal/service/email/service.go
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	xerrors "vaultbank-service/internal/pkg/errors"

	"github.com/emersion/go-message/mail"
	"github.com/oklog/ulid/v2"
)

const dialTimeout = 10 * time.Second

// Message is a rendered email ready to send.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// EmailSender handles outgoing emails via SMTP.
type EmailSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	fromName string
	secure   bool
}

// NewEmailSender creates a new SMTP email sender.
func NewEmailSender(host, port, user, pass, fromName string, secure bool) *EmailSender {
	return &EmailSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		fromName: fromName,
		secure:   secure,
	}
}

// Configured reports whether a relay and account are set.
func (e *EmailSender) Configured() bool {
	return e != nil && e.smtpHost != "" && e.username != ""
}

// Send delivers msg and returns its message id.
func (e *EmailSender) Send(ctx context.Context, msg Message) (string, error) {
	if !e.Configured() {
		return "", fmt.Errorf("email service: %w", xerrors.ErrNotConfigured)
	}

	id := ulid.Make().String()
	raw, err := e.compose(id, msg, time.Now())
	if err != nil {
		return "", err
	}

	client, err := e.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	if err := client.Auth(auth); err != nil {
		return "", fmt.Errorf("auth failed: %w", err)
	}

	if err := e.sendMail(client, msg.To, raw); err != nil {
		return "", err
	}
	return id, nil
}

// compose builds the RFC 5322 message.
func (e *EmailSender) compose(id string, msg Message, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Name: e.fromName, Address: e.username}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetMessageID(fmt.Sprintf("%s@%s", id, e.domain()))
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if _, err := w.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *EmailSender) domain() string {
	if at := strings.LastIndex(e.username, "@"); at >= 0 && at < len(e.username)-1 {
		return e.username[at+1:]
	}
	return e.smtpHost
}

func (e *EmailSender) dial(ctx context.Context) (*smtp.Client, error) {
	serverAddr := net.JoinHostPort(e.smtpHost, e.smtpPort)
	tlsConfig := &tls.Config{ServerName: e.smtpHost}
	dialer := &net.Dialer{Timeout: dialTimeout}

	if e.secure {
		// Port 465 - implicit TLS
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", serverAddr)
		if err != nil {
			return nil, fmt.Errorf("tls dial failed: %w", err)
		}
		client, err := smtp.NewClient(conn, e.smtpHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("smtp client failed: %w", err)
		}
		return client, nil
	}

	// Port 587 - STARTTLS
	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp client failed: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls failed: %w", err)
		}
	}
	return client, nil
}

func (e *EmailSender) sendMail(client *smtp.Client, to string, msg []byte) error {
	if err := client.Mail(e.username); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}
