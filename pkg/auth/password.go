package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 10
	MinPasswordLen    = 6
	MaxPasswordLen    = 72 // bcrypt ignores input past 72 bytes
)

// ErrPasswordTooLong is returned by Hash for secrets bcrypt cannot represent
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher produces self-describing bcrypt digests. The cost is stored
// in every digest, so changing it never invalidates digests already stored.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost to the range bcrypt accepts
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a digest with a fresh random salt
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if len(password) > MaxPasswordLen {
		return "", ErrPasswordTooLong
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether password matches digest. Malformed digests never match.
func (h *PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// DigestCost reports the cost embedded in a digest
func DigestCost(digest string) (int, error) {
	return bcrypt.Cost([]byte(digest))
}
