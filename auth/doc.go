// Package auth implements the credential lifecycle of user accounts.
//
// # Credential states
//
// An account is ACTIVE while its permanent password is in effect. A recovery
// request issues a one-time temporary password and moves the account to
// RECOVERY_PENDING; the only way back to ACTIVE is RotatePassword, which
// exchanges that temporary password for a new permanent one. A second recovery
// request replaces the pending temporary password.
//
// # Failures
//
// Errors carry an oops code and wrap one of ErrValidation, ErrNotFound,
// ErrUnauthorized, ErrConflict or ErrInvalidState. KindOf maps them to a Kind.
//
// # Storage
//
// Manager depends on UserStore. UpdateCredentials must serialise writers per
// user so a temporary password can be consumed at most once.
package auth
