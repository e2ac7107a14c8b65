// internal/repository/postgres/otp_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"vaultbank-service/internal/domain/otp"
)

// maxActiveCodes bounds how many live codes are compared per verification.
const maxActiveCodes = 20

type OTPRepository struct {
	db *DB
}

func NewOTPRepository(db *DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create stores a new code and fills in its id and created_at.
func (r *OTPRepository) Create(ctx context.Context, c *otp.Code) error {
	query := `
		INSERT INTO otp_codes (user_id, purpose, code_hash, expires_at)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING id::text, created_at
	`

	if err := r.db.Pool().QueryRow(ctx, query, c.UserID, c.Purpose, c.CodeHash, c.ExpiresAt).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("failed to store otp code: %w", err)
	}
	return nil
}

// ListActive returns the owner's unexpired codes, newest first.
func (r *OTPRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]otp.Code, error) {
	query := `
		SELECT id::text, user_id::text, purpose, code_hash, expires_at, created_at
		FROM otp_codes
		WHERE user_id = $1::uuid
		  AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query, userID, now, maxActiveCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to list otp codes: %w", err)
	}
	defer rows.Close()

	var codes []otp.Code
	for rows.Next() {
		var c otp.Code
		if err := rows.Scan(&c.ID, &c.UserID, &c.Purpose, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan otp code: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate otp codes: %w", err)
	}

	return codes, nil
}

// Delete removes a code. It reports false when the row was already gone,
// which means a concurrent verification consumed it first.
func (r *OTPRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM otp_codes WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete otp code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteExpired purges codes whose expiry is at or before now.
func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM otp_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired otp codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
