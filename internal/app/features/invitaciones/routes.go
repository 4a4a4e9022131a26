// internal/app/features/invitaciones/routes.go
package invitaciones

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /invitaciones.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	// The list route keys the param by user id; chi requires one param
	// name per position, so it is "id" throughout.
	r.Get("/{id}", h.ServeList)
	r.Post("/{id}/aceptar", h.ServeAccept)
	r.Post("/{id}/rechazar", h.ServeReject)
	r.Post("/{id}/archivar", h.ServeArchive)
	r.Post("/{id}/desarchivar", h.ServeUnarchive)
	return r
}
