package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", []byte("not-a-hash"))
	assert.Error(t, err)
}

func TestHashPasswordEncodedForm(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	parts := strings.Split(string(hash), "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])

	// Both base64 segments must survive the round trip through the parser.
	ok, err := VerifyPassword("pw", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateSessionToken(secret, "u1", "s1", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseSessionToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, "admin", claims.Role)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := GenerateSessionToken("secret-a", "u1", "s1", "user", time.Hour)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "secret-b")
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := GenerateSessionToken("secret", "u1", "s1", "user", -time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken(token, "secret")
	assert.Error(t, err)
}

func TestHashSessionTokenStable(t *testing.T) {
	a := HashSessionToken("tok")
	b := HashSessionToken("tok")
	c := HashSessionToken("other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
