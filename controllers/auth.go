package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kelydev/apiUsuarios/auth"
	"github.com/kelydev/apiUsuarios/metrics"
	"github.com/kelydev/apiUsuarios/models"
	"github.com/kelydev/apiUsuarios/notify"
)

// CredentialService is the credential lifecycle driven by the handlers.
// *auth.Manager satisfies it.
type CredentialService interface {
	Login(ctx context.Context, correo, password string) (*models.Usuario, error)
	RequestRecovery(ctx context.Context, correo string) (*auth.Issued, error)
	RotatePassword(ctx context.Context, correo, temporal, nueva string) error
	Register(ctx context.Context, in models.NuevoUsuario) (*models.Usuario, error)
}

// AuthRecorder counts credential operation outcomes. *metrics.Metrics satisfies it.
type AuthRecorder interface {
	RecordAuth(operation, outcome string)
}

// Deps bundles what the handlers need.
type Deps struct {
	Credentials CredentialService
	Usuarios    UsuarioStore
	Dispatcher  notify.Dispatcher
	Metrics     AuthRecorder
	Logger      *slog.Logger
}

func (d Deps) record(operation string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = auth.KindOf(err).String()
	}
	d.Metrics.RecordAuth(operation, outcome)
}

// LoginHandler verifies a correo/password pair and returns the user's public view.
// No token is issued.
func LoginHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if !decodeBody(w, r, &creds) {
			return
		}

		usuario, err := d.Credentials.Login(r.Context(), creds.Correo, creds.Password)
		d.record(metrics.OpLogin, err)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{unauthorized: "Correo o contraseña incorrectos"})
			return
		}

		writeJSON(w, http.StatusOK, usuario)
	}
}

// RecuperarHandler issues a temporary password and hands it to the delivery
// channel. The plaintext never appears in the response.
func RecuperarHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RecuperarRequest
		if !decodeBody(w, r, &req) {
			return
		}

		issued, err := d.Credentials.RequestRecovery(r.Context(), req.Correo)
		if err != nil {
			d.record(metrics.OpRecovery, err)
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{validation: "El correo es obligatorio."})
			return
		}

		msg := notify.TemporaryPassword{
			UsuarioID: issued.UsuarioID,
			Correo:    issued.Correo,
			Temporal:  issued.Temporal,
			Emitida:   issued.Emitida,
		}
		if err := d.Dispatcher.Dispatch(r.Context(), msg); err != nil {
			// The temporary password is stored; a new request re-issues it.
			d.Metrics.RecordAuth(metrics.OpRecovery, metrics.OutcomeDeliveryFailed)
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		d.record(metrics.OpRecovery, nil)

		writeJSON(w, http.StatusOK, models.Mensaje{Message: "Se ha enviado una contraseña temporal a su correo."})
	}
}

// CambiarPasswordHandler exchanges a temporary password for a new permanent one.
func CambiarPasswordHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CambiarPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		err := d.Credentials.RotatePassword(r.Context(), req.Correo, req.PasswordTemporal, req.NuevaPassword)
		d.record(metrics.OpRotation, err)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{
				validation:   "Todos los campos son obligatorios.",
				unauthorized: "Correo o contraseña temporal incorrectos",
			})
			return
		}

		writeJSON(w, http.StatusOK, models.Mensaje{Message: "Contraseña actualizada correctamente."})
	}
}
