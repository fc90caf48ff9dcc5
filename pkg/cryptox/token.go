package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// APIKeyPrefix marks relay API keys so they are recognisable in config and
// secret scanners.
const APIKeyPrefix = "wcr_"

// GenerateToken creates a random token of size bytes, base64url encoded
// without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateAPIKey returns a new relay key and its fingerprint. Only the
// fingerprint should be stored server-side.
func GenerateAPIKey() (key, fingerprint string, err error) {
	tok, err := GenerateToken(TokenSize256)
	if err != nil {
		return "", "", err
	}
	key = APIKeyPrefix + tok
	return key, FingerprintToken(key), nil
}

// FingerprintToken returns the base64url SHA-256 of token (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// MaskToken keeps the first and last four characters of a secret for display.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// KeySet matches presented keys against a fixed set of fingerprints.
type KeySet struct {
	fingerprints [][]byte
}

// NewKeySet builds a set from fingerprints, ignoring blanks.
func NewKeySet(fingerprints ...string) *KeySet {
	ks := &KeySet{}
	for _, fp := range fingerprints {
		if fp = strings.TrimSpace(fp); fp != "" {
			ks.fingerprints = append(ks.fingerprints, []byte(fp))
		}
	}
	return ks
}

// Len is the number of configured fingerprints.
func (ks *KeySet) Len() int { return len(ks.fingerprints) }

// Match reports whether key fingerprints to a member of the set and returns
// that fingerprint. Every member is compared in constant time.
func (ks *KeySet) Match(key string) (string, bool) {
	presented := []byte(FingerprintToken(key))

	var found []byte
	for _, fp := range ks.fingerprints {
		if subtle.ConstantTimeCompare(presented, fp) == 1 {
			found = fp
		}
	}
	if found == nil {
		return "", false
	}
	return string(found), true
}
