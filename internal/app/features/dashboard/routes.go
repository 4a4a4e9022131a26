// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the subrouter mounted under /dashboard.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/{id}", h.Serve)
	return r
}
