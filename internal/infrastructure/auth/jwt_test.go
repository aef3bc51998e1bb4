package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/shipping/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-at-least-32-characters!!",
		AccessTokenExpiration: time.Minute,
		Issuer:                "shipping-service",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "ops", RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ops", claims.Username)
	assert.True(t, claims.IsAdmin())
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := newTestJWTService().GenerateAccessToken(uuid.New(), "ops", RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-32-char-secret",
		AccessTokenExpiration: time.Minute,
		Issuer:                "shipping-service",
	})
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-at-least-32-characters!!",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "shipping-service",
	})

	token, err := svc.GenerateAccessToken(uuid.New(), "ops", RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_RejectsWrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-at-least-32-characters!!",
		AccessTokenExpiration: time.Minute,
		Issuer:                "someone-else",
	})
	token, err := other.GenerateAccessToken(uuid.New(), "ops", RoleAdmin)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_NonAdminRole(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateAccessToken(uuid.New(), "viewer", "viewer")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}
