package auth

import (
	"context"

	"github.com/kelydev/apiUsuarios/models"
)

// UserStore is the persistence contract the Manager depends on.
//
// Implementations return errors wrapping ErrNotFound for missing records and
// ErrConflict when a correo is already taken.
type UserStore interface {
	// Create stores a new user and fills in its ID and timestamps.
	Create(ctx context.Context, u *models.Usuario) error

	// GetByCorreo retrieves a user by email (case-insensitive).
	GetByCorreo(ctx context.Context, correo string) (*models.Usuario, error)

	// UpdateCredentials loads the user identified by correo under an exclusive
	// per-user lock, applies mutate and persists the credential fields before
	// releasing the lock. If mutate returns an error nothing is written and that
	// error is returned unchanged.
	UpdateCredentials(ctx context.Context, correo string, mutate func(u *models.Usuario) error) (*models.Usuario, error)
}
