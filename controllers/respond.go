package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kelydev/apiUsuarios/auth"
	"github.com/kelydev/apiUsuarios/logging"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Errores []CampoError `json:"errores,omitempty"`
}

// CampoError describes one invalid input field.
type CampoError struct {
	Campo   string `json:"campo"`
	Mensaje string `json:"mensaje"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeBody reads a JSON body into dst and validates it. On failure it has
// already written the 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return false
	}
	return validateBody(w, dst)
}

func validateBody(w http.ResponseWriter, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return false
	}
	resp := ErrorResponse{Error: "Datos inválidos"}
	for _, fe := range verrs {
		resp.Errores = append(resp.Errores, CampoError{Campo: fe.Field(), Mensaje: mensajeValidacion(fe)})
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return false
}

func mensajeValidacion(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "El campo es obligatorio"
	case "email":
		return "Debe ser un correo válido"
	case "min":
		return "Debe tener al menos " + fe.Param() + " caracteres"
	case "max":
		return "Debe tener como máximo " + fe.Param() + " caracteres"
	default:
		return "Valor inválido"
	}
}

// codeMessages gives specific caller-facing messages for some error codes.
var codeMessages = map[string]string{
	"ROTATE_PASSWORD_REUSE":  "La nueva contraseña debe ser distinta de la contraseña temporal",
	"TEMP_PASSWORD_EXPIRED":  "La contraseña temporal ha expirado, solicite una nueva",
	"AUTH_PASSWORD_TOO_LONG": "La contraseña no puede superar 72 bytes",
}

// writeFailure maps a service error onto a status code and a message that is
// safe to show to the caller. Internal errors are logged and hidden.
func writeFailure(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, msgs failureMessages) {
	var (
		status int
		msg    string
	)
	switch auth.KindOf(err) {
	case auth.KindValidation:
		status, msg = http.StatusBadRequest, msgs.pick(msgs.validation, "Datos inválidos")
	case auth.KindNotFound:
		status, msg = http.StatusNotFound, msgs.pick(msgs.notFound, "Usuario no encontrado")
	case auth.KindUnauthorized:
		status, msg = http.StatusUnauthorized, msgs.pick(msgs.unauthorized, "Credenciales inválidas")
	case auth.KindConflict:
		status, msg = http.StatusConflict, msgs.pick(msgs.conflict, "El correo ya está registrado")
	case auth.KindInvalidState:
		status, msg = http.StatusConflict, msgs.pick(msgs.invalidState, "No hay una recuperación de contraseña pendiente")
	default:
		logging.LogError(ctx, logger, "request failed", err)
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}
	if specific, ok := codeMessages[auth.Code(err)]; ok {
		msg = specific
	}
	writeError(w, status, msg)
}

// failureMessages overrides the default message per failure kind.
type failureMessages struct {
	validation   string
	notFound     string
	unauthorized string
	conflict     string
	invalidState string
}

func (failureMessages) pick(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
