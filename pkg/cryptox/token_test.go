package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	for _, size := range []int{TokenSize128, TokenSize256, 24} {
		token, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		token2, err := GenerateToken(size)
		require.NoError(t, err)
		require.NotEqual(t, token, token2, "tokens should be unique")
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}

func TestGenerateAPIKey(t *testing.T) {
	key, fp, err := GenerateAPIKey()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, APIKeyPrefix))
	require.Equal(t, FingerprintToken(key), fp)
}

func TestKeySet_Match(t *testing.T) {
	key, fp, err := GenerateAPIKey()
	require.NoError(t, err)

	ks := NewKeySet("", fp, "  ", FingerprintToken("other"))
	require.Equal(t, 2, ks.Len())

	got, ok := ks.Match(key)
	require.True(t, ok)
	require.Equal(t, fp, got)

	_, ok = ks.Match("wcr_unknown")
	require.False(t, ok)

	_, ok = NewKeySet().Match(key)
	require.False(t, ok)
}

func TestMaskToken(t *testing.T) {
	require.Equal(t, "abcd********mnop", MaskToken("abcdefghijklmnop"))
	require.Equal(t, "*****", MaskToken("short"))
}
