package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	pair, err := GenerateToken(userID, "jinwoo", "jinwoo@hunters.kr", "secret", "sensei_service", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, 5*time.Second)

	claims, err := ValidateToken(pair.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "jinwoo", claims.Username)
	assert.Equal(t, "jinwoo@hunters.kr", claims.Email)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	pair, err := GenerateToken(uuid.New(), "jinwoo", "a@b.c", "secret", "sensei_service", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "other-secret")
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	pair, err := GenerateToken(uuid.New(), "jinwoo", "a@b.c", "secret", "sensei_service", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "secret")
	assert.Error(t, err)
}
