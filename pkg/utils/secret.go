package utils

import (
	"crypto/rand"
	"fmt"
)

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecret returns an opaque bearer secret of the given length sampled
// uniformly from the 62-symbol alphanumeric alphabet. Failure of the random
// source is fatal for the calling operation and is returned as an error.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", length)
	}

	// Rejection sampling keeps the distribution uniform: 256 is not a
	// multiple of 62, so bytes past the largest full multiple are skipped.
	limit := byte(256 - 256%len(secretAlphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, secretAlphabet[int(b)%len(secretAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
