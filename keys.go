package securebag

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// deriveKey normalizes an arbitrary-length secret to a 256-bit key.
func deriveKey(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

// randomIV reads n bytes from the process CSPRNG.
func randomIV(n int) ([]byte, error) {
	iv := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}
	return iv, nil
}

// wipe overwrites sensitive bytes in place.
func wipe(b []byte) {
	clear(b)
}
