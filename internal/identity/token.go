// Package identity provides the primitives shared by every contract
// subsystem: entity IDs, contract numbers, and invitation tokens.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
)

// tokenBytes is the amount of entropy behind a plaintext invitation token.
const tokenBytes = 32

// TokenLength is the fixed length of a base64url (no padding) encoding of
// tokenBytes random bytes.
const TokenLength = 43

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewToken generates a one-time invitation credential. It returns the
// plaintext (returned to the caller exactly once) and its SHA-256 hash
// (the only form ever persisted).
func NewToken() (plaintext string, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	plaintext = base64.RawURLEncoding.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the lowercase hex SHA-256 digest of a plaintext token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// ValidateTokenFormat rejects malformed tokens before any storage lookup,
// so presenting garbage never reaches the hash/lookup path.
func ValidateTokenFormat(plaintext string) error {
	if len(plaintext) != TokenLength {
		return fmt.Errorf("token must be %d characters, got %d", TokenLength, len(plaintext))
	}
	if !tokenPattern.MatchString(plaintext) {
		return fmt.Errorf("token contains invalid characters")
	}
	return nil
}
