package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewID returns a 256-bit random session identifier.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generating id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
