package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewPairCode returns a random six digit check-in code, zero padded.
func NewPairCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
