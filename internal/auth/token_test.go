package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)

	raw, err := iss.Issue("u1", "ada@example.com")
	require.NoError(t, err)

	claims, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestParse_Rejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	raw, err := iss.Issue("u1", "ada@example.com")
	require.NoError(t, err)

	_, err = NewIssuer("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// alg none
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := iss.Issue("u1", "ada@example.com")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestNewResetCode(t *testing.T) {
	for range 20 {
		code, err := NewResetCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
