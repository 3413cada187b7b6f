package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// InvitationTokenSize is 256 bits of entropy (43 chars base64url).
const InvitationTokenSize = 32

// GenerateToken creates a cryptographically secure random token of size bytes,
// base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the SHA-256 fingerprint stored in place of the token.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// MatchesFingerprint compares token against a stored fingerprint in constant time.
func MatchesFingerprint(token, fingerprint string) bool {
	if token == "" || fingerprint == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(FingerprintToken(token)), []byte(fingerprint)) == 1
}

// InvitationTokens implements ports.InvitationTokens with random tokens and
// SHA-256 fingerprints.
type InvitationTokens struct{}

func NewInvitationTokens() InvitationTokens { return InvitationTokens{} }

func (InvitationTokens) Mint() (string, string, error) {
	token, err := GenerateToken(InvitationTokenSize)
	if err != nil {
		return "", "", err
	}
	return token, FingerprintToken(token), nil
}

func (InvitationTokens) Matches(token, fingerprint string) bool {
	return MatchesFingerprint(token, fingerprint)
}
