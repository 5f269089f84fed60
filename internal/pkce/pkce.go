package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ChallengeMethod is the only code_challenge_method we use
const ChallengeMethod = "S256"

const (
	verifierNumBytes = 32
	stateNumBytes    = 16
)

// GenerateCodeVerifier returns a new high-entropy code verifier: 32 random bytes,
// encoded as 43 characters of unpadded base64url
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, verifierNumBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCodeChallenge derives the S256 code challenge for the given verifier
func GenerateCodeChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// VerifyCodeChallenge reports whether challenge is the S256 challenge of verifier
func VerifyCodeChallenge(challenge, verifier string) bool {
	if challenge == "" || verifier == "" {
		return false
	}
	expected := GenerateCodeChallenge(verifier)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(challenge)) == 1
}

// GenerateState returns a new single-use state value: 16 random bytes, hex-encoded
func GenerateState() (string, error) {
	b := make([]byte, stateNumBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
