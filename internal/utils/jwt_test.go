package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_JWTService_RoundTrip(t *testing.T) {
	// arrange
	service := NewJWTService("secret")
	userID := uuid.New()

	// act
	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	got, err := service.ExtractUserID(token)

	// assert
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func Test_JWTService_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("other").GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("secret").ExtractUserID(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_JWTService_RejectsExpiredToken(t *testing.T) {
	service := NewJWTService("secret")
	service.ttl = -time.Minute
	token, err := service.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = service.ExtractUserID(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func Test_JWTService_RejectsNonUUIDSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret").ExtractUserID(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}
