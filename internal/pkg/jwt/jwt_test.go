package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndVerify(t *testing.T) {
	m, err := LoadAndBuild(Config{Secret: testSecret, Issuer: "vaultbank-auth", Audience: "authenticated", TTL: time.Hour})
	require.NoError(t, err)

	token, jti, err := m.Generator.Generate("6f1c1a52-2d0b-4c55-9c61-2b7b7d8b6c11", "agent@vaultbank.test", RoleSupportAgent, []string{RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := m.Verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "6f1c1a52-2d0b-4c55-9c61-2b7b7d8b6c11", claims.UserID())
	assert.Equal(t, "agent@vaultbank.test", claims.Email)
	assert.True(t, claims.HasRole(RoleSupportAgent))
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, jti, claims.ID)
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	gen := NewGenerator([]byte(testSecret), "someone-else", "authenticated", time.Hour)
	token, _, err := gen.Generate("user-1", "", RoleCustomer, nil)
	require.NoError(t, err)

	ver := NewVerifier([]byte(testSecret), "vaultbank-auth", "authenticated")
	_, err = ver.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	gen := NewGenerator([]byte(testSecret), "", "authenticated", time.Hour)
	token, _, err := gen.Generate("user-1", "", RoleCustomer, nil)
	require.NoError(t, err)

	_, err = NewVerifier([]byte("ffffffffffffffffffffffffffffffff"), "", "authenticated").Verify(token)
	assert.Error(t, err)

	claims, err := NewVerifier([]byte(testSecret), "", "authenticated").Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.HasRole(RoleSupportAgent))
}

func TestVerifyRejectsExpired(t *testing.T) {
	gen := NewGenerator([]byte(testSecret), "", "", -time.Minute)
	token, _, err := gen.Generate("user-1", "", RoleCustomer, nil)
	require.NoError(t, err)

	_, err = NewVerifier([]byte(testSecret), "", "").Verify(token)
	assert.Error(t, err)
}

func TestLoadAndBuildRejectsShortSecret(t *testing.T) {
	_, err := LoadAndBuild(Config{Secret: "short"})
	assert.Error(t, err)
}
