package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchops/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "church-identity",
	}
	return NewJWTService(cfg)
}

func newTestInput() GenerateTokenInput {
	societyID := uuid.New()
	return GenerateTokenInput{
		UserID:       uuid.New(),
		Username:     "tesorero",
		SocietyID:    &societyID,
		Capabilities: []string{"treasury:read", "treasury:movement:create"},
	}
}

func TestGenerateToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, expiresAt, err := svc.GenerateToken(input)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestValidateToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	t.Run("round trip preserves claims", func(t *testing.T) {
		token, _, err := svc.GenerateToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, input.UserID.String(), claims.UserID)
		assert.Equal(t, input.Username, claims.Username)
		assert.Equal(t, input.SocietyID.String(), claims.SocietyID)
		assert.Equal(t, input.Capabilities, claims.Capabilities)
		assert.Equal(t, "church-identity", claims.Issuer)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token, _, err := svc.GenerateToken(input)
		require.NoError(t, err)

		other := NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-with-32-chars!",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "church-identity",
		})
		_, err = other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "church-identity",
		})
		token, _, err := expired.GenerateToken(input)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestClaimsHelpers(t *testing.T) {
	svc := newTestJWTService()

	t.Run("society id optional", func(t *testing.T) {
		input := newTestInput()
		input.SocietyID = nil
		token, _, err := svc.GenerateToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)

		societyID, err := claims.GetSocietyUUID()
		require.NoError(t, err)
		assert.Nil(t, societyID)
	})

	t.Run("uuid accessors", func(t *testing.T) {
		input := newTestInput()
		token, _, err := svc.GenerateToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)

		userID, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, input.UserID, userID)

		societyID, err := claims.GetSocietyUUID()
		require.NoError(t, err)
		require.NotNil(t, societyID)
		assert.Equal(t, *input.SocietyID, *societyID)
	})

	t.Run("capability check", func(t *testing.T) {
		claims := &Claims{Capabilities: []string{"treasury:read"}}
		assert.True(t, claims.HasCapability("treasury:read"))
		assert.False(t, claims.HasCapability("tithe:distribute"))
	})
}
