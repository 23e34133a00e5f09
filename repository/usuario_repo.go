package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kelydev/apiUsuarios/auth"
	"github.com/kelydev/apiUsuarios/database"
	"github.com/kelydev/apiUsuarios/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

const usuarioColumns = `idusuario, nombre, correo, password_hash, estado_credencial,
	password_temporal_hash, password_temporal_emitida, created_at, updated_at`

// UsuarioRepository stores users in PostgreSQL.
type UsuarioRepository struct {
	db *sql.DB
}

// NewUsuarioRepository creates a UsuarioRepository.
func NewUsuarioRepository(db *sql.DB) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUsuario(row rowScanner) (*models.Usuario, error) {
	var u models.Usuario
	err := row.Scan(
		&u.ID,
		&u.Nombre,
		&u.Correo,
		&u.PasswordHash,
		&u.EstadoCredencial,
		&u.PasswordTemporalHash,
		&u.PasswordTemporalEmitida,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. The password must already be hashed.
func (r *UsuarioRepository) Create(ctx context.Context, u *models.Usuario) error {
	if u.EstadoCredencial == "" {
		u.EstadoCredencial = models.EstadoActivo
	}

	query := `INSERT INTO usuario (nombre, correo, password_hash, estado_credencial)
		VALUES ($1, $2, $3, $4)
		RETURNING idusuario, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, u.Nombre, u.Correo, u.PasswordHash, u.EstadoCredencial).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("correo %q already registered: %w", u.Correo, auth.ErrConflict)
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// GetByCorreo retrieves a user by their email address (case-insensitive).
func (r *UsuarioRepository) GetByCorreo(ctx context.Context, correo string) (*models.Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuario WHERE LOWER(correo) = LOWER($1)`
	u, err := scanUsuario(r.db.QueryRowContext(ctx, query, correo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("usuario with correo %q: %w", correo, auth.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting user by correo: %w", err)
	}
	return u, nil
}

// GetByID retrieves a single user by ID.
func (r *UsuarioRepository) GetByID(ctx context.Context, id int) (*models.Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuario WHERE idusuario = $1`
	u, err := scanUsuario(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("usuario %d: %w", id, auth.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

// UpdateCredentials locks the user's row, applies mutate and writes the
// credential columns back in the same transaction.
func (r *UsuarioRepository) UpdateCredentials(ctx context.Context, correo string, mutate func(u *models.Usuario) error) (*models.Usuario, error) {
	var updated *models.Usuario
	err := database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		query := `SELECT ` + usuarioColumns + ` FROM usuario WHERE LOWER(correo) = LOWER($1) FOR UPDATE`
		u, err := scanUsuario(tx.QueryRowContext(ctx, query, correo))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("usuario with correo %q: %w", correo, auth.ErrNotFound)
			}
			return fmt.Errorf("error locking user: %w", err)
		}

		if err := mutate(u); err != nil {
			return err
		}

		update := `UPDATE usuario
			SET password_hash = $1, estado_credencial = $2,
				password_temporal_hash = $3, password_temporal_emitida = $4,
				updated_at = CURRENT_TIMESTAMP
			WHERE idusuario = $5
			RETURNING updated_at`
		err = tx.QueryRowContext(ctx, update,
			u.PasswordHash, u.EstadoCredencial, u.PasswordTemporalHash, u.PasswordTemporalEmitida, u.ID,
		).Scan(&u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error updating credentials: %w", err)
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List retrieves a paginated list of users ordered by ID, plus the total count.
func (r *UsuarioRepository) List(ctx context.Context, limit, offset int) ([]models.Usuario, int, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuario ORDER BY idusuario LIMIT $1 OFFSET $2`
	usuarios, err := r.query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuario`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error querying total user count: %w", err)
	}
	return usuarios, total, nil
}

// ListAll retrieves ALL users without pagination.
func (r *UsuarioRepository) ListAll(ctx context.Context) ([]models.Usuario, error) {
	return r.query(ctx, `SELECT `+usuarioColumns+` FROM usuario ORDER BY idusuario`)
}

func (r *UsuarioRepository) query(ctx context.Context, query string, args ...any) ([]models.Usuario, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	usuarios := []models.Usuario{}
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		usuarios = append(usuarios, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating through user rows: %w", err)
	}
	return usuarios, nil
}

// Update changes the non-credential fields of a user.
func (r *UsuarioRepository) Update(ctx context.Context, id int, in models.UsuarioUpdate) (*models.Usuario, error) {
	query := `UPDATE usuario SET nombre = $1, correo = $2, updated_at = CURRENT_TIMESTAMP
		WHERE idusuario = $3
		RETURNING ` + usuarioColumns
	u, err := scanUsuario(r.db.QueryRowContext(ctx, query, in.Nombre, in.Correo, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("usuario %d: %w", id, auth.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("correo %q already registered: %w", in.Correo, auth.ErrConflict)
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return u, nil
}

// Delete removes a user regardless of its credential state.
func (r *UsuarioRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usuario WHERE idusuario = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("usuario %d: %w", id, auth.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
