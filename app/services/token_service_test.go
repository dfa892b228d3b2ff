package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, refreshTTL, "adpilot", "adpilot-api", "test-secret-key-for-unit-tests-only-32ch")
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "adpilot", "adpilot-api", "")
	assert.Error(t, err)
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.CustomerID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, claims.TokenID, refreshClaims.TokenID)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	other, err := NewTokenService(time.Hour, 24*time.Hour, "adpilot", "adpilot-api", "a-different-secret-key-value-32-chars!!")
	require.NoError(t, err)

	access, _, err := other.GenerateTokens(42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute, 24*time.Hour)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_RevokedToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(access))

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestTokenService_RefreshRotatesPair(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	_, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.CustomerID)

	// The consumed refresh token is single-use
	_, _, err = svc.RefreshToken(refresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestTokenService_AccessTokenCannotRefresh(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	access, _, err := svc.GenerateTokens(42)
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
