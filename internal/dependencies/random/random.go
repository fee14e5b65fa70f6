package random

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// SecretBytes is the entropy, in bytes, of a generated player secret.
const SecretBytes = 32

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Secret generates a random player secret encoded for transport
	Secret() string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// Secret returns a base64url-encoded string carrying SecretBytes bytes of
// entropy from crypto/rand.
func (r *CryptoRandom) Secret() string {
	b := make([]byte, SecretBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
