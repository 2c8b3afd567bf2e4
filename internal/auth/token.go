package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// AccessTokenBytes is the amount of randomness behind each access token.
const AccessTokenBytes = 128

// NewAccessToken returns a permanent opaque access token: AccessTokenBytes
// random bytes, hex encoded.
func NewAccessToken() (string, error) {
	b := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
