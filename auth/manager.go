package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/kelydev/apiUsuarios/models"
)

// dummyPassword feeds the verification performed for unknown accounts so that
// a login for a missing correo costs as much as a wrong password.
const dummyPassword = "apiUsuarios-timing-equalizer"

// Issued is the result of a recovery request. Temporal is the only copy of the
// plaintext temporary password; it must go to the delivery channel and nowhere else.
type Issued struct {
	UsuarioID int
	Correo    string
	Temporal  string
	Emitida   time.Time
}

// Manager implements the credential lifecycle: login, recovery issuance and
// password rotation. It holds no per-user state of its own.
type Manager struct {
	store            UserStore
	hasher           PasswordHasher
	generate         TemporaryGenerator
	now              func() time.Time
	ttl              time.Duration
	revokeOnRecovery bool
	logger           *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithGenerator overrides the temporary password generator.
func WithGenerator(g TemporaryGenerator) Option {
	return func(m *Manager) { m.generate = g }
}

// WithTemporaryTTL limits how long a temporary password can be exchanged.
// Zero means temporary passwords do not expire.
func WithTemporaryTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithRevokeOnRecovery makes a pending recovery suspend ordinary login with the
// old password until the rotation completes.
func WithRevokeOnRecovery(revoke bool) Option {
	return func(m *Manager) { m.revokeOnRecovery = revoke }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager over the given store and hasher.
func NewManager(store UserStore, hasher PasswordHasher, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("MANAGER_INVALID").Errorf("password hasher is required")
	}

	m := &Manager{
		store:    store,
		hasher:   hasher,
		generate: GenerateTemporaryPassword,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Login verifies a correo/password pair against the active password and
// returns the public view of the user.
//
// Unknown accounts and wrong passwords fail identically with ErrUnauthorized.
// The temporary password is never accepted here.
func (m *Manager) Login(ctx context.Context, correo, password string) (*models.Usuario, error) {
	correo = models.NormalizeCorreo(correo)

	u, err := m.store.GetByCorreo(ctx, correo)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.equalizeTiming(password)
			return nil, invalidCredentials("LOGIN_INVALID_CREDENTIALS")
		}
		return nil, oops.Code("LOGIN_FAILED").
			With("operation", "GetByCorreo").
			Wrap(err)
	}

	ok, err := m.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, oops.Code("LOGIN_FAILED").
			With("operation", "Verify").
			With("usuario_id", u.ID).
			Wrap(err)
	}
	if !ok {
		return nil, invalidCredentials("LOGIN_INVALID_CREDENTIALS")
	}
	if m.revokeOnRecovery && u.RecoveryPending() {
		return nil, invalidCredentials("LOGIN_RECOVERY_PENDING")
	}

	return u.Public(), nil
}

// RequestRecovery issues a fresh temporary password for correo and moves the
// account into RECOVERY_PENDING, replacing any earlier temporary password.
//
// The plaintext is returned only after the store committed its hash.
func (m *Manager) RequestRecovery(ctx context.Context, correo string) (*Issued, error) {
	correo = models.NormalizeCorreo(correo)
	if correo == "" {
		return nil, oops.Code("RECOVERY_CORREO_EMPTY").Wrapf(ErrValidation, "correo is required")
	}

	temporal, err := m.generate()
	if err != nil {
		return nil, oops.Code("RECOVERY_FAILED").
			With("operation", "GenerateTemporaryPassword").
			Wrap(err)
	}
	hash, err := m.hasher.Hash(temporal)
	if err != nil {
		return nil, oops.Code("RECOVERY_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	emitida := m.now()
	u, err := m.store.UpdateCredentials(ctx, correo, func(u *models.Usuario) error {
		u.IssueTemporary(hash, emitida)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("RECOVERY_USER_NOT_FOUND").Wrap(err)
		}
		return nil, oops.Code("RECOVERY_FAILED").
			With("operation", "UpdateCredentials").
			Wrap(err)
	}

	m.logger.InfoContext(ctx, "temporary password issued", "usuario_id", u.ID)

	return &Issued{
		UsuarioID: u.ID,
		Correo:    u.Correo,
		Temporal:  temporal,
		Emitida:   emitida,
	}, nil
}

// RotatePassword exchanges a pending temporary password for a new permanent one.
//
// Fails with ErrInvalidState when no recovery is pending or the account is
// unknown, ErrUnauthorized when the temporary password does not match or has
// expired, and ErrValidation when the new password is unusable, including when
// it equals the temporary password. Unknown accounts get the exact error an
// active account gets so the response does not reveal which correos exist.
func (m *Manager) RotatePassword(ctx context.Context, correo, temporal, nueva string) error {
	correo = models.NormalizeCorreo(correo)
	if correo == "" || temporal == "" || nueva == "" {
		return oops.Code("ROTATE_FIELDS_REQUIRED").Wrapf(ErrValidation, "correo, temporary and new password are required")
	}
	if nueva == temporal {
		return oops.Code("ROTATE_PASSWORD_REUSE").Wrapf(ErrValidation, "new password must differ from the temporary password")
	}

	newHash, err := m.hasher.Hash(nueva)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return oops.Code("ROTATE_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	var (
		rejected  error
		usuarioID int
	)
	_, err = m.store.UpdateCredentials(ctx, correo, func(u *models.Usuario) error {
		usuarioID = u.ID
		rejected = m.consumeTemporary(u, temporal)
		if rejected != nil {
			return rejected
		}
		u.Rotate(newHash)
		return nil
	})
	if rejected != nil {
		if errors.Is(rejected, ErrInvalidState) {
			m.equalizeTiming(temporal)
		}
		m.logger.WarnContext(ctx, "password rotation rejected", "usuario_id", usuarioID, "code", Code(rejected))
		return rejected
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.equalizeTiming(temporal)
			return notPending()
		}
		return oops.Code("ROTATE_FAILED").
			With("operation", "UpdateCredentials").
			Wrap(err)
	}

	m.logger.InfoContext(ctx, "password rotated", "usuario_id", usuarioID)
	return nil
}

// consumeTemporary checks temporal against the pending temporary hash. It runs
// under the store's per-user lock so the check and the clear are atomic.
func (m *Manager) consumeTemporary(u *models.Usuario, temporal string) error {
	if !u.RecoveryPending() {
		return notPending()
	}
	if m.ttl > 0 && u.PasswordTemporalEmitida != nil && m.now().Sub(*u.PasswordTemporalEmitida) > m.ttl {
		return oops.Code("TEMP_PASSWORD_EXPIRED").
			With("usuario_id", u.ID).
			Wrapf(ErrUnauthorized, "temporary password has expired")
	}

	ok, err := m.hasher.Verify(temporal, *u.PasswordTemporalHash)
	if err != nil {
		return oops.Code("ROTATE_FAILED").
			With("operation", "Verify").
			With("usuario_id", u.ID).
			Wrap(err)
	}
	if !ok {
		return invalidCredentials("ROTATE_INVALID_CREDENTIALS")
	}
	return nil
}

// Register creates an ACTIVE account with a hashed password.
func (m *Manager) Register(ctx context.Context, in models.NuevoUsuario) (*models.Usuario, error) {
	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	u := &models.Usuario{
		Nombre:           strings.TrimSpace(in.Nombre),
		Correo:           models.NormalizeCorreo(in.Correo),
		PasswordHash:     hash,
		EstadoCredencial: models.EstadoActivo,
	}
	if err := m.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, oops.Code("REGISTER_CORREO_TAKEN").Wrap(err)
		}
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "Create").
			Wrap(err)
	}

	m.logger.InfoContext(ctx, "usuario registered", "usuario_id", u.ID)
	return u.Public(), nil
}

func (m *Manager) equalizeTiming(password string) {
	m.dummyOnce.Do(func() {
		// On failure dummyHash stays empty and Verify returns early.
		m.dummyHash, _ = m.hasher.Hash(dummyPassword)
	})
	_, _ = m.hasher.Verify(password, m.dummyHash)
}

// notPending is shared by unknown and active accounts; it must not carry
// anything that tells them apart.
func notPending() error {
	return oops.Code("ROTATE_NOT_PENDING").Wrapf(ErrInvalidState, "no temporary password pending")
}

func invalidCredentials(code string) error {
	return oops.Code(code).Wrapf(ErrUnauthorized, "invalid credentials")
}
