package oidc

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const assertionTTL = 5 * time.Minute

// clientAssertion builds the private-key-JWT used to authenticate this
// client at the provider's token endpoint (RS512, keyed by the configured
// kid).
func clientAssertion(key *rsa.PrivateKey, keyID, clientID, audience string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": clientID,
		"sub": clientID,
		"aud": audience,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(assertionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS512, claims)
	if keyID != "" {
		token.Header["kid"] = keyID
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign client assertion: %w", err)
	}
	return signed, nil
}
