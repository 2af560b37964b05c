package helpers

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateToken(t *testing.T) {
	tokens, err := NewTokens("test-secret", "https://www.gravitalia.com", time.Hour)
	require.NoError(t, err)

	token, err := tokens.CreateToken("f0b6c1a2")
	require.NoError(t, err)

	jwtCheck := regexp.MustCompile(`^[A-Za-z0-9-_]*\.[A-Za-z0-9-_]*\.[A-Za-z0-9-_]*$`)
	assert.Regexp(t, jwtCheck, token)

	subject, err := tokens.CheckToken(token)
	require.NoError(t, err)
	assert.Equal(t, "f0b6c1a2", subject)
}

func TestCheckToken_Rejects(t *testing.T) {
	tokens, err := NewTokens("test-secret", "issuer", time.Hour)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.CheckToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokens("another-secret", "issuer", time.Hour)
		require.NoError(t, err)
		token, err := other.CreateToken("someone")
		require.NoError(t, err)

		_, err = tokens.CheckToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := tokens.CreateToken("someone")
		require.NoError(t, err)

		tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { tokens.now = time.Now }()

		_, err = tokens.CheckToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
