package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/vault?sslmode=disable")
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 60*time.Second, cfg.OTP.ResendCooldown)
	assert.False(t, cfg.OTP.TestMode)
	assert.Equal(t, []string{"112233", "654308"}, cfg.OTP.BypassCodes)
	assert.Equal(t, []string{"open"}, cfg.Assignment.WorkloadStatuses)
	assert.False(t, cfg.SMTPConfigured())
}

func TestDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "vault")
	t.Setenv("DB_USER", "bank")
	t.Setenv("DB_PASSWORD", "p@ss")

	cfg := Load()
	assert.Equal(t, "postgres://bank:p%40ss@db:5432/vault?sslmode=disable", cfg.DatabaseURL)
}

func TestValidateRejectsTestModeInProduction(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vault")
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTP_TEST_MODE", "true")

	cfg := Load()
	assert.Error(t, cfg.Validate())

	cfg.AppEnv = "staging"
	assert.NoError(t, cfg.Validate())
}

func TestWorkloadStatusesFromEnv(t *testing.T) {
	t.Setenv("WORKLOAD_STATUSES", "open, pending ,")

	cfg := Load()
	assert.Equal(t, []string{"open", "pending"}, cfg.Assignment.WorkloadStatuses)
}
