package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "panellicense", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewTokenManager("   ", "panellicense", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "panellicense", time.Hour)
	require.NoError(t, err)

	token, exp, err := tm.GenerateToken("user-42", RoleAdmin)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, claims.IsAdmin())
}

func TestTokenManager_Rejects(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "panellicense", time.Hour)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("other-secret", "panellicense", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateToken("user-1", RoleUser)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenManager("test-secret", "someone-else", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateToken("user-1", RoleUser)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewTokenManager("test-secret", "panellicense", time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken("user-1", RoleUser)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1", Role: RoleAdmin})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tm.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			Role: RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "panellicense",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tm.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenManager_GenerateRequiresUser(t *testing.T) {
	tm, err := NewTokenManager("test-secret", "", time.Hour)
	require.NoError(t, err)

	_, _, err = tm.GenerateToken(" ", RoleUser)
	assert.Error(t, err)
}
