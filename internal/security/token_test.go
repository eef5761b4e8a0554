package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		tm := NewTokenManager(testSecret, time.Hour)
		token, err := tm.GenerateAccessToken(42, "reader@example.com")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "reader@example.com", claims.Email)
		assert.Equal(t, "42", claims.Subject)
		assert.Equal(t, TokenTypeAccess, claims.Type)
	})

	t.Run("Expired", func(t *testing.T) {
		tm := NewTokenManager(testSecret, time.Minute).(*tokenManager)
		tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		token, err := tm.GenerateAccessToken(1, "")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := NewTokenManager(testSecret, time.Hour).GenerateAccessToken(1, "")
		require.NoError(t, err)

		_, err = NewTokenManager("another-secret-another-secret-xx", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong type", func(t *testing.T) {
		claims := UserClaims{
			UserID: 1,
			Type:   TokenType("refresh"),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = NewTokenManager(testSecret, time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := NewTokenManager(testSecret, time.Hour).ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
