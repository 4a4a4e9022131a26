// internal/app/features/grupos/routes.go
package grupos

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /grupos.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	// The leading path param doubles as a user id on the list routes; chi
	// requires one name per position, so it is "id" throughout.
	r.Post("/", h.ServeCreate)
	r.Get("/{id}", h.ServeList)
	r.Get("/{id}/archivados", h.ServeListArchived)
	r.Put("/{id}", h.ServeUpdate)
	r.Put("/{id}/estado", h.ServeUpdateEstado)
	r.Get("/{id}/miembros", h.ServeListMembers)
	r.Post("/{id}/invitar", h.ServeInvite)
	r.Delete("/{id}/miembros/{usuarioID}", h.ServeRemoveMember)
	r.Put("/{id}/miembros/{usuarioID}/rol", h.ServeChangeRole)
	return r
}
