package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/egner-npc/pengaduan-masyarakat-app/internal/models"
	pkgauth "github.com/egner-npc/pengaduan-masyarakat-app/pkg/auth"
)

// CredentialChecker verifies login secrets so that an unknown account and a
// wrong password cost the same bcrypt work
type CredentialChecker struct {
	hasher *pkgauth.PasswordHasher
	dummy  string
}

// NewCredentialChecker hashes a random throwaway secret at the hasher's cost
func NewCredentialChecker(hasher *pkgauth.PasswordHasher) (*CredentialChecker, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate dummy secret: %w", err)
	}

	dummy, err := hasher.Hash(hex.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to hash dummy secret: %w", err)
	}

	return &CredentialChecker{hasher: hasher, dummy: dummy}, nil
}

// Check reports whether password belongs to user. A nil user still runs a
// full comparison against the dummy digest and always fails.
func (c *CredentialChecker) Check(user *models.User, password string) bool {
	if user == nil {
		c.hasher.Verify(password, c.dummy)
		return false
	}
	return c.hasher.Verify(password, user.PasswordHash)
}
