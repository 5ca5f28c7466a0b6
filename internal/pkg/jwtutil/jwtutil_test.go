package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	token, expiresAt, err := GenerateToken("secret", time.Minute, Subject{
		UserID:    7,
		Login:     "rarity",
		Role:      1,
		SessionID: "sid-1",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "rarity", claims.Login)
	assert.Equal(t, 1, claims.Role)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestParseRejectsBadTokens(t *testing.T) {
	token, _, err := GenerateToken("secret", time.Minute, Subject{UserID: 1})
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := GenerateToken("secret", -time.Minute, Subject{UserID: 1})
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("secret", "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
