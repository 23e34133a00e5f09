package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer inputs are rejected
// instead of being truncated.
const maxPasswordBytes = 72

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted digest of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid digest.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A cost outside bcrypt's accepted
// range falls back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrValidation, "password cannot be empty")
	}
	if len(password) > maxPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").Wrapf(ErrValidation, "password exceeds %d bytes", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hashed), nil
}

// Verify compares a plaintext password with a stored bcrypt hash.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	// bcrypt ignores everything past the limit, so a longer input could
	// match a hash of its prefix.
	if len(password) > maxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
}
