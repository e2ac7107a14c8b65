// internal/domain/otp/dto.go
package otp

import "time"

// EmailDetails carries the optional flow context rendered into the email.
type EmailDetails struct {
	AccountType       string `json:"accountType,omitempty"`
	AccountIdentifier string `json:"accountIdentifier,omitempty"`
	Amount            string `json:"amount,omitempty"`
	Currency          string `json:"currency,omitempty"`
}

// SendEmailRequest is the body of the send-otp-email function.
type SendEmailRequest struct {
	Email  string  `json:"email"`
	OTP    string  `json:"otp"`
	Action Purpose `json:"action"`
	EmailDetails
}

// SendEmailResponse is always returned with HTTP 200.
type SendEmailResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type IssueRequest struct {
	Purpose           Purpose `json:"purpose" binding:"required"`
	Email             string  `json:"email" binding:"omitempty,email"`
	Amount            string  `json:"amount"`
	Currency          string  `json:"currency"`
	AccountType       string  `json:"account_type"`
	AccountIdentifier string  `json:"account_identifier"`

	UserID string `json:"-"`
}

type IssueResult struct {
	ExpiresAt     time.Time `json:"expires_at"`
	EmailSent     bool      `json:"email_sent"`
	EmailID       string    `json:"email_id,omitempty"`
	SkippedReason string    `json:"skipped_reason,omitempty"`
}

type VerifyRequest struct {
	Code string `json:"code" binding:"required"`

	UserID string `json:"-"`
}

type VerifyResult struct {
	Verified bool         `json:"verified"`
	Method   VerifyMethod `json:"method"`
}
