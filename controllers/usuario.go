package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/kelydev/apiUsuarios/metrics"
	"github.com/kelydev/apiUsuarios/models"
	"github.com/kelydev/apiUsuarios/utils"
)

// UsuarioStore is the record administration surface. Both
// *repository.UsuarioRepository and *authtest.MemoryStore satisfy it.
type UsuarioStore interface {
	GetByID(ctx context.Context, id int) (*models.Usuario, error)
	List(ctx context.Context, limit, offset int) ([]models.Usuario, int, error)
	ListAll(ctx context.Context) ([]models.Usuario, error)
	Update(ctx context.Context, id int, in models.UsuarioUpdate) (*models.Usuario, error)
	Delete(ctx context.Context, id int) error
}

// credentialFields may never be set through the administrative update.
var credentialFields = []string{
	"password",
	"passwordHash",
	"password_hash",
	"estadoCredencial",
	"estado_credencial",
	"passwordTemporal",
	"passwordTemporalHash",
	"password_temporal_hash",
	"passwordTemporalEmitida",
	"password_temporal_emitida",
	"nuevaPassword",
}

// GetUsuariosHandler handles fetching users with pagination.
func GetUsuariosHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := utils.GetPaginationParams(r)
		offset := (page - 1) * limit

		usuarios, totalItems, err := d.Usuarios.List(r.Context(), limit, offset)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}

		totalPages := 0
		if totalItems > 0 {
			totalPages = int(math.Ceil(float64(totalItems) / float64(limit)))
		}

		writeJSON(w, http.StatusOK, models.PaginatedResponse{
			Data: usuarios,
			Pagination: models.PaginationMetadata{
				TotalItems:  totalItems,
				TotalPages:  totalPages,
				CurrentPage: page,
				Limit:       limit,
			},
		})
	}
}

// GetAllUsuariosHandler handles fetching ALL users without pagination.
func GetAllUsuariosHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usuarios, err := d.Usuarios.ListAll(r.Context())
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": usuarios})
	}
}

// GetUsuarioHandler handles fetching a single user by ID.
func GetUsuarioHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := usuarioID(w, r)
		if !ok {
			return
		}

		usuario, err := d.Usuarios.GetByID(r.Context(), id)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		writeJSON(w, http.StatusOK, usuario.Public())
	}
}

// CreateUsuarioHandler handles creating a new account in the ACTIVE state.
func CreateUsuarioHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.NuevoUsuario
		if !decodeBody(w, r, &in) {
			return
		}

		usuario, err := d.Credentials.Register(r.Context(), in)
		d.record(metrics.OpRegister, err)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		writeJSON(w, http.StatusCreated, usuario)
	}
}

// UpdateUsuarioHandler handles updating nombre and correo. Bodies naming any
// credential field are rejected, as are unknown fields.
func UpdateUsuarioHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := usuarioID(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
			return
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
			return
		}
		var rejected []CampoError
		for _, name := range credentialFields {
			if _, present := fields[name]; present {
				rejected = append(rejected, CampoError{Campo: name, Mensaje: "Las credenciales no se pueden modificar por esta vía"})
			}
		}
		if len(rejected) > 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Datos inválidos", Errores: rejected})
			return
		}

		var in models.UsuarioUpdate
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
			return
		}
		in.Correo = models.NormalizeCorreo(in.Correo)
		if !validateBody(w, &in) {
			return
		}

		usuario, err := d.Usuarios.Update(r.Context(), id, in)
		if err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		writeJSON(w, http.StatusOK, usuario.Public())
	}
}

// DeleteUsuarioHandler handles deleting a user in any credential state.
func DeleteUsuarioHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := usuarioID(w, r)
		if !ok {
			return
		}

		if err := d.Usuarios.Delete(r.Context(), id); err != nil {
			writeFailure(r.Context(), w, d.Logger, err, failureMessages{})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func usuarioID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "ID de usuario inválido")
		return 0, false
	}
	return id, true
}
