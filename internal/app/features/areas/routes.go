// internal/app/features/areas/routes.go
package areas

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /areas.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	// The list route keys the param by user id; chi requires one param
	// name per position, so it is "id" throughout.
	r.Post("/", h.ServeCreate)
	r.Get("/{id}", h.ServeList)
	r.Put("/{id}", h.ServeUpdate)
	r.Put("/{id}/estado", h.ServeUpdateEstado)
	return r
}
