package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiverToken(t *testing.T) {
	token, err := NewReceiverToken("secret", "viewer", time.Hour)
	require.NoError(t, err)
	assert.True(t, IsValidReceiver("secret", token))
	assert.False(t, IsValidReceiver("other", token))

	forever, err := NewReceiverToken("secret", "viewer", 0)
	require.NoError(t, err)
	assert.True(t, IsValidReceiver("secret", forever))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "RECEIVER",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	assert.False(t, IsValidReceiver("secret", expired))

	_, err = NewReceiverToken("", "viewer", time.Hour)
	assert.Error(t, err)
}

func TestReceiverTokenRejectsOtherRoles(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "PLAYER"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	assert.False(t, IsValidReceiver("secret", token))
	assert.False(t, IsValidReceiver("secret", "not-a-token"))
}
