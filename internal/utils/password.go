package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plaintext password against its hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var randomSource = rand.Reader

// GenerateRandomCode returns n random decimal digits.
func GenerateRandomCode(n int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, n)
	for i := range code {
		v, err := rand.Int(randomSource, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code[i] = digits[v.Int64()]
	}
	return string(code), nil
}
