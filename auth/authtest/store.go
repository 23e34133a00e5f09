// Package authtest provides in-memory test doubles for the auth package.
package authtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/kelydev/apiUsuarios/auth"
	"github.com/kelydev/apiUsuarios/models"
)

// MemoryStore is a UserStore backed by a map. A single mutex serialises all
// writers, which is stricter than the per-user locking the contract asks for.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]models.Usuario
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int]models.Usuario),
		now:    time.Now,
	}
}

// Create stores a copy of u, assigning ID and timestamps.
func (s *MemoryStore) Create(_ context.Context, u *models.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	correo := models.NormalizeCorreo(u.Correo)
	if _, ok := s.findLocked(correo); ok {
		return oops.Code("USUARIO_CORREO_TAKEN").With("correo", correo).Wrap(auth.ErrConflict)
	}

	now := s.now()
	u.ID = s.nextID
	u.Correo = correo
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.EstadoCredencial == "" {
		u.EstadoCredencial = models.EstadoActivo
	}
	s.nextID++
	s.byID[u.ID] = clone(*u)
	return nil
}

// GetByCorreo returns a copy of the user with the given email.
func (s *MemoryStore) GetByCorreo(_ context.Context, correo string) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.findLocked(models.NormalizeCorreo(correo))
	if !ok {
		return nil, oops.Code("USUARIO_NOT_FOUND").With("correo", correo).Wrap(auth.ErrNotFound)
	}
	out := clone(u)
	return &out, nil
}

// UpdateCredentials applies mutate to a copy and stores it only when mutate succeeds.
func (s *MemoryStore) UpdateCredentials(ctx context.Context, correo string, mutate func(u *models.Usuario) error) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, ok := s.findLocked(models.NormalizeCorreo(correo))
	if !ok {
		return nil, oops.Code("USUARIO_NOT_FOUND").With("correo", correo).Wrap(auth.ErrNotFound)
	}

	working := clone(current)
	if err := mutate(&working); err != nil {
		return nil, err
	}

	// Only credential columns are written back.
	current.PasswordHash = working.PasswordHash
	current.EstadoCredencial = working.EstadoCredencial
	current.PasswordTemporalHash = working.PasswordTemporalHash
	current.PasswordTemporalEmitida = working.PasswordTemporalEmitida
	current.UpdatedAt = s.now()
	s.byID[current.ID] = clone(current)

	out := clone(current)
	return &out, nil
}

// GetByID returns a copy of the user with the given ID.
func (s *MemoryStore) GetByID(_ context.Context, id int) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("USUARIO_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	out := clone(u)
	return &out, nil
}

// List returns a page of users ordered by ID together with the total count.
func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]models.Usuario, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sortedLocked()
	total := len(all)
	if offset < 0 || offset >= total {
		return []models.Usuario{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ListAll returns every user ordered by ID.
func (s *MemoryStore) ListAll(_ context.Context) ([]models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

// Update changes the non-credential fields of a user.
func (s *MemoryStore) Update(_ context.Context, id int, in models.UsuarioUpdate) (*models.Usuario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("USUARIO_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	correo := models.NormalizeCorreo(in.Correo)
	if other, taken := s.findLocked(correo); taken && other.ID != id {
		return nil, oops.Code("USUARIO_CORREO_TAKEN").With("correo", correo).Wrap(auth.ErrConflict)
	}

	u.Nombre = in.Nombre
	u.Correo = correo
	u.UpdatedAt = s.now()
	s.byID[id] = clone(u)

	out := clone(u)
	return &out, nil
}

// Delete removes a user regardless of its credential state.
func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return oops.Code("USUARIO_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	delete(s.byID, id)
	return nil
}

// Snapshot returns the stored record for id including credential fields.
func (s *MemoryStore) Snapshot(id int) (models.Usuario, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	return clone(u), ok
}

func (s *MemoryStore) findLocked(correo string) (models.Usuario, bool) {
	for _, u := range s.byID {
		if u.Correo == correo {
			return u, true
		}
	}
	return models.Usuario{}, false
}

func (s *MemoryStore) sortedLocked() []models.Usuario {
	out := make([]models.Usuario, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clone(u models.Usuario) models.Usuario {
	if u.PasswordTemporalHash != nil {
		h := *u.PasswordTemporalHash
		u.PasswordTemporalHash = &h
	}
	if u.PasswordTemporalEmitida != nil {
		t := *u.PasswordTemporalEmitida
		u.PasswordTemporalEmitida = &t
	}
	return u
}
