package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

// PasswordHasher hashes with a configurable cost so tests can use bcrypt.MinCost.
type PasswordHasher struct {
	Cost int
}

// NewPasswordHasher returns a hasher at BcryptCost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{Cost: BcryptCost}
}

// Hash hashes a plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = BcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Check reports whether password matches hashed.
func (h *PasswordHasher) Check(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// HashPassword hashes at the default cost.
func HashPassword(password string) (string, error) {
	return NewPasswordHasher().Hash(password)
}

// CheckPassword verifies against a stored hash.
func CheckPassword(hashedPassword, password string) bool {
	return NewPasswordHasher().Check(hashedPassword, password)
}
