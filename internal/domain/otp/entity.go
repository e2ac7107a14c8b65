// internal/domain/otp/entity.go
package otp

import (
	"fmt"
	"time"

	xerrors "vaultbank-service/internal/pkg/errors"
)

// Purpose is the flow a code protects. The values double as the "action"
// tag of the email-send endpoint.
type Purpose string

const (
	PurposeLogin                 Purpose = "login"
	PurposeTransfer              Purpose = "transfer"
	PurposeWithdrawal            Purpose = "withdrawal"
	PurposeLinkAccount           Purpose = "link_account"
	PurposeDomesticTransfer      Purpose = "domestic_transfer"
	PurposeInternationalTransfer Purpose = "international_transfer"
	PurposeCryptoWithdrawal      Purpose = "crypto_withdrawal"
)

var purposes = map[Purpose]bool{
	PurposeLogin:                 true,
	PurposeTransfer:              true,
	PurposeWithdrawal:            true,
	PurposeLinkAccount:           true,
	PurposeDomesticTransfer:      true,
	PurposeInternationalTransfer: true,
	PurposeCryptoWithdrawal:      true,
}

func (p Purpose) Valid() bool {
	return purposes[p]
}

// CodeLength is the number of digits in every code.
const CodeLength = 6

// VerifyMethod records how a verification succeeded.
type VerifyMethod string

const (
	MethodCode   VerifyMethod = "code"
	MethodBypass VerifyMethod = "bypass"
)

var (
	ErrInvalidCode = fmt.Errorf("invalid or expired verification code: %w", xerrors.ErrInvalidVerifier)
	ErrMalformed   = fmt.Errorf("verification code must be %d digits: %w", CodeLength, xerrors.ErrInvalidInput)
	ErrCooldown    = fmt.Errorf("please wait before requesting a new code: %w", xerrors.ErrRateLimited)
	ErrBadPurpose  = fmt.Errorf("unknown verification purpose: %w", xerrors.ErrInvalidInput)
)

// Code is a stored one-time code. Only the bcrypt hash is persisted.
type Code struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Purpose   Purpose   `json:"purpose" db:"purpose"`
	CodeHash  string    `json:"-" db:"code_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (c *Code) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsWellFormed reports whether s is exactly CodeLength ASCII digits.
func IsWellFormed(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
