package models

// Credentials represents the data needed for login.
type Credentials struct {
	Correo   string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// RecuperarRequest starts the password recovery workflow.
type RecuperarRequest struct {
	Correo string `json:"correo" validate:"required,email"`
}

// CambiarPasswordRequest exchanges a temporary password for a new permanent one.
type CambiarPasswordRequest struct {
	Correo           string `json:"correo" validate:"required,email"`
	PasswordTemporal string `json:"passwordTemporal" validate:"required,max=72"`
	NuevaPassword    string `json:"nuevaPassword" validate:"required,min=8,max=72"`
}

// NuevoUsuario is the input accepted when creating an account.
type NuevoUsuario struct {
	Nombre   string `json:"nombre" validate:"required,max=120"`
	Correo   string `json:"correo" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UsuarioUpdate holds the administratively editable fields of an account.
// Credential fields are deliberately absent.
type UsuarioUpdate struct {
	Nombre string `json:"nombre" validate:"required,max=120"`
	Correo string `json:"correo" validate:"required,email,max=254"`
}

// Mensaje is the confirmation body returned by the recovery endpoints.
type Mensaje struct {
	Message string `json:"message"`
}
