package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomKey returns length random bytes, base64url encoded.
func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateSecretKey returns a SECRET_KEY value that is also a valid AES-256
// key: 24 random bytes encode to exactly 32 characters.
func GenerateSecretKey() (string, error) {
	return GenerateRandomKey(24)
}
