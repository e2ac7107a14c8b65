package postgres

import (
	"context"
	"testing"
	"time"

	"vaultbank-service/internal/domain/otp"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listActiveSQL = `(?s)FROM otp_codes.*WHERE user_id = \$1::uuid.*AND expires_at > \$2.*ORDER BY created_at DESC.*LIMIT \$3`

var codeColumns = []string{"id", "user_id", "purpose", "code_hash", "expires_at", "created_at"}

func TestOTPCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewOTPRepository(NewDB(mock))
	expires := time.Date(2026, 3, 1, 12, 10, 0, 0, time.UTC)
	created := expires.Add(-10 * time.Minute)

	mock.ExpectQuery(`(?s)INSERT INTO otp_codes \(user_id, purpose, code_hash, expires_at\).*RETURNING id::text, created_at`).
		WithArgs("u1", otp.PurposeLogin, "hash", expires).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("c1", created))

	code := &otp.Code{UserID: "u1", Purpose: otp.PurposeLogin, CodeHash: "hash", ExpiresAt: expires}
	require.NoError(t, repo.Create(context.Background(), code))
	assert.Equal(t, "c1", code.ID)
	assert.Equal(t, created, code.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPListActive(t *testing.T) {
	mock := newMock(t)
	repo := NewOTPRepository(NewDB(mock))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(listActiveSQL).
		WithArgs("u1", now, maxActiveCodes).
		WillReturnRows(pgxmock.NewRows(codeColumns).
			AddRow("c2", "u1", otp.PurposeTransfer, "h2", now.Add(9*time.Minute), now.Add(-time.Minute)).
			AddRow("c1", "u1", otp.PurposeLogin, "h1", now.Add(5*time.Minute), now.Add(-5*time.Minute)))

	codes, err := repo.ListActive(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "c2", codes[0].ID)
	assert.Equal(t, otp.PurposeTransfer, codes[0].Purpose)
	assert.Equal(t, "c1", codes[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewOTPRepository(NewDB(mock))
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM otp_codes WHERE id = \$1::uuid`).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM otp_codes WHERE id = \$1::uuid`).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPDeleteExpired(t *testing.T) {
	mock := newMock(t)
	repo := NewOTPRepository(NewDB(mock))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM otp_codes WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
