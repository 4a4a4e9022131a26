// internal/app/features/usuarios/routes.go
package usuarios

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /usuarios.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeRegister)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/{id}", h.ServeGet)
		r.Put("/{id}/password", h.ServeUpdatePassword)
		r.Put("/{id}/telefono", h.ServeUpdatePhone)
	})
	return r
}
