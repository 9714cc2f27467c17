package oidc

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// generateVerifier returns a PKCE code verifier with 256 bits of entropy.
func generateVerifier() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// challengeS256 derives the S256 code challenge for a verifier.
func challengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateNonce returns the replay-protection nonce bound into the ID
// token, independent of the CSRF state value.
func generateNonce() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
