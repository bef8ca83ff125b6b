// Package secrets generates one-time database credentials.
package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultPasswordLength is the length of generated database passwords.
const DefaultPasswordLength = 16

const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GeneratePassword returns a random password of the given length drawn
// uniformly from letters and digits using a cryptographically secure source.
// A non-positive length falls back to DefaultPasswordLength.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}

	max := big.NewInt(int64(len(passwordCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
