package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const stateTokenBytes = 32

// GenerateStateToken returns a cryptographically random, URL-safe token
// used to correlate an authorization attempt with its provider callback.
func GenerateStateToken() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
