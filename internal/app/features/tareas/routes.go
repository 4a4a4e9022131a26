// internal/app/features/tareas/routes.go
package tareas

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /tareas.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	// List routes key the leading param by user id; chi requires one
	// param name per position, so it is "id" throughout.
	r.Post("/", h.ServeCreate)
	r.Post("/asignar", h.ServeAssign)
	r.Get("/{id}", h.ServeList)
	r.Put("/{id}", h.ServeUpdate)
	r.Put("/{id}/estado", h.ServeUpdateEstado)
	r.Delete("/{id}", h.ServeDelete)
	return r
}
