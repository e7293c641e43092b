// Package apikey mints opaque bearer credentials for embeddable widgets.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Prefix identifies our keys in logs and support tickets without revealing
// anything about the owner.
const Prefix = "sb-"

const randomBytes = 16

// Generate returns a fresh opaque API key.
func Generate() (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return Prefix + hex.EncodeToString(buf), nil
}

// WellFormed reports whether a candidate string has the shape of a key. It is
// a cheap pre-check before the database lookup, not an authenticity check.
func WellFormed(key string) bool {
	if !strings.HasPrefix(key, Prefix) {
		return false
	}
	rest := strings.TrimPrefix(key, Prefix)
	if len(rest) != randomBytes*2 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}
