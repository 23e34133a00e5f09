package models

import (
	"strings"
	"time"
)

// EstadoCredencial describes which credential currently governs an account.
type EstadoCredencial string

const (
	// EstadoActivo means the permanent password is in effect.
	EstadoActivo EstadoCredencial = "ACTIVE"
	// EstadoRecuperacion means a temporary password was issued and not yet consumed.
	EstadoRecuperacion EstadoCredencial = "RECOVERY_PENDING"
)

// Usuario represents a user account in the application database.
type Usuario struct {
	ID                      int              `json:"idUsuario" db:"idusuario"`
	Nombre                  string           `json:"nombre" db:"nombre"`
	Correo                  string           `json:"correo" db:"correo"`
	PasswordHash            string           `json:"-" db:"password_hash"` // Never serialised
	EstadoCredencial        EstadoCredencial `json:"-" db:"estado_credencial"`
	PasswordTemporalHash    *string          `json:"-" db:"password_temporal_hash"`
	PasswordTemporalEmitida *time.Time       `json:"-" db:"password_temporal_emitida"`
	CreatedAt               time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time        `json:"updatedAt" db:"updated_at"`
}

// RecoveryPending reports whether a temporary password is waiting to be consumed.
func (u *Usuario) RecoveryPending() bool {
	return u.EstadoCredencial == EstadoRecuperacion && u.PasswordTemporalHash != nil
}

// IssueTemporary moves the account into recovery with the given temporary hash,
// replacing any temporary password issued earlier.
func (u *Usuario) IssueTemporary(hash string, at time.Time) {
	u.PasswordTemporalHash = &hash
	u.PasswordTemporalEmitida = &at
	u.EstadoCredencial = EstadoRecuperacion
}

// Rotate installs a new permanent password hash and drops the temporary one.
func (u *Usuario) Rotate(hash string) {
	u.PasswordHash = hash
	u.PasswordTemporalHash = nil
	u.PasswordTemporalEmitida = nil
	u.EstadoCredencial = EstadoActivo
}

// NormalizeCorreo trims and lower-cases an email so lookups are case-insensitive.
func NormalizeCorreo(correo string) string {
	return strings.ToLower(strings.TrimSpace(correo))
}

// Public returns a copy of the user with every credential field cleared.
func (u *Usuario) Public() *Usuario {
	return &Usuario{
		ID:        u.ID,
		Nombre:    u.Nombre,
		Correo:    u.Correo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
