package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a salted bcrypt hash. The default cost is high
// enough to resist offline brute force while staying interactive.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns nil when the password matches the stored hash.
// bcrypt's comparison is constant-time on the digest.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
