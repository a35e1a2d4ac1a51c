package services

import (
	"testing"
	"time"

	"carebook/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T, secret string) *AuthService {
	t.Helper()

	service, err := NewAuthService(config.Config{JWTSecret: secret})
	require.NoError(t, err)
	return service
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := NewAuthService(config.Config{})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	service := newTestAuthService(t, "test-secret")
	userID := uuid.New()

	token, err := service.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestGenerateTokenDefaultsTTL(t *testing.T) {
	service := newTestAuthService(t, "test-secret")

	token, err := service.GenerateToken(uuid.New(), 0)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.NoError(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestAuthService(t, "secret-one")
	verifier := newTestAuthService(t, "secret-two")

	token, err := issuer.GenerateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	service := newTestAuthService(t, "test-secret")

	token, err := service.GenerateToken(uuid.New(), -time.Hour)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	service := newTestAuthService(t, "test-secret")

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "hello.world"},
		{"truncated jwt", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
