package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrincexMacbay/saas-platform-sub000/pkg/errcode"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestFromToken(t *testing.T) {
	tokenString := signToken(t, &Claims{
		UserId:    42,
		Username:  "jdoe",
		FirstName: "Jane",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	ident, err := FromToken(tokenString, testSecret)
	require.NoError(t, err)
	assert.EqualValues(t, 42, ident.UserId)
	assert.Equal(t, "jdoe", ident.Username)
	assert.Equal(t, "Jane", ident.FirstName)
}

func TestFromToken_WrongSecret(t *testing.T) {
	tokenString := signToken(t, &Claims{UserId: 42})

	_, err := FromToken(tokenString, "other-secret")
	require.ErrorIs(t, err, errcode.ErrTokenInvalid)
}

func TestFromToken_Empty(t *testing.T) {
	_, err := FromToken("", testSecret)
	require.ErrorIs(t, err, errcode.ErrTokenMissing)
}

func TestFromTokenUnverified(t *testing.T) {
	tokenString := signToken(t, &Claims{UserId: 7, Username: "bot"})

	ident, err := FromTokenUnverified(tokenString)
	require.NoError(t, err)
	assert.EqualValues(t, 7, ident.UserId)
	assert.Equal(t, "bot", ident.Username)
}

func TestFromToken_MissingUserId(t *testing.T) {
	tokenString := signToken(t, &Claims{Username: "anonymous"})

	_, err := FromToken(tokenString, testSecret)
	require.ErrorIs(t, err, errcode.ErrTokenInvalid)
}
