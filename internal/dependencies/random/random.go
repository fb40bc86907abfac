// Package random abstracts id generation behind an interface so game
// and tournament ids can be pinned in tests.
package random

import (
	"crypto/rand"
	"math/big"
)

// Random is the source of randomness injected into the services
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String draws length characters from the given alphabet; room and
	// tournament ids use the lowercase alphanumeric alphabet
	String(length int, alphabet string) string
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
		// crypto/rand failing is not recoverable here
		return 0
	}
	return int(result.Int64())
}

// String draws length characters from the given alphabet
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}
