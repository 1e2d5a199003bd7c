package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	plaintext, hash, err := NewToken()
	require.NoError(t, err)
	require.Len(t, plaintext, TokenLength)
	require.Len(t, hash, 64)
	require.Equal(t, hash, HashToken(plaintext))
}

func TestNewToken_Unique(t *testing.T) {
	p1, h1, err := NewToken()
	require.NoError(t, err)
	p2, h2, err := NewToken()
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
	require.NotEqual(t, h1, h2)
}

func TestHashToken_Deterministic(t *testing.T) {
	plaintext, _, err := NewToken()
	require.NoError(t, err)
	require.Equal(t, HashToken(plaintext), HashToken(plaintext))
}

func TestValidateTokenFormat(t *testing.T) {
	plaintext, _, err := NewToken()
	require.NoError(t, err)
	require.NoError(t, ValidateTokenFormat(plaintext))

	cases := []string{
		"",
		"tooshort",
		plaintext + "x",
		plaintext[:len(plaintext)-1] + "!",
	}
	for _, c := range cases {
		require.Error(t, ValidateTokenFormat(c))
	}
}
