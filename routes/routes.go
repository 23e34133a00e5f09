package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kelydev/apiUsuarios/controllers"
	"github.com/kelydev/apiUsuarios/middleware"
)

// Options carries what the router needs besides the handler dependencies.
type Options struct {
	// JWTSecret enables the bearer guard on the admin routes when non-empty.
	JWTSecret string
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	// Observer records request durations when set.
	Observer middleware.DurationObserver
}

// SetupRoutes configures the application routes.
func SetupRoutes(d controllers.Deps, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID(d.Logger))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods("GET")
	}

	// --- Authentication Routes (Public) ---
	r.HandleFunc("/usuarios/login", controllers.LoginHandler(d)).Methods("POST")
	r.HandleFunc("/usuarios/recuperar", controllers.RecuperarHandler(d)).Methods("POST")
	r.HandleFunc("/usuarios/cambiar-password", controllers.CambiarPasswordHandler(d)).Methods("POST")
	r.HandleFunc("/usuarios", controllers.CreateUsuarioHandler(d)).Methods("POST")

	// --- Administration Routes ---
	// Create a subrouter so the JWT guard only wraps these routes
	admin := r.PathPrefix("").Subrouter()
	if opts.JWTSecret != "" {
		admin.Use(middleware.JWTMiddleware(opts.JWTSecret, d.Logger))
	}
	admin.HandleFunc("/usuarios", controllers.GetUsuariosHandler(d)).Methods("GET")
	admin.HandleFunc("/usuarios/all", controllers.GetAllUsuariosHandler(d)).Methods("GET")
	admin.HandleFunc("/usuarios/{id:[0-9]+}", controllers.GetUsuarioHandler(d)).Methods("GET")
	admin.HandleFunc("/usuarios/{id:[0-9]+}", controllers.UpdateUsuarioHandler(d)).Methods("PUT")
	admin.HandleFunc("/usuarios/{id:[0-9]+}", controllers.DeleteUsuarioHandler(d)).Methods("DELETE")

	return r
}
