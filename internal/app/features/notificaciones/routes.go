// internal/app/features/notificaciones/routes.go
package notificaciones

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /notificaciones.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	// List/count/leer-todas key the param by user id; chi requires one
	// param name per position, so it is "id" throughout.
	r.Get("/{id}", h.ServeList)
	r.Get("/{id}/contar-no-leidas", h.ServeCountUnread)
	r.Put("/{id}/leer", h.ServeMarkRead)
	r.Put("/{id}/leer-todas", h.ServeMarkAllRead)
	r.Delete("/{id}", h.ServeDelete)
	return r
}
