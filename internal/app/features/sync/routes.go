// internal/app/features/sync/routes.go
package sync

import (
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// AuthRoutes returns the subrouter mounted under /auth: the OAuth handshake
// legs. The callback leg carries no session (the provider redirects the
// browser), so it sits outside RequireSignedIn; the state row binds it to
// the initiating user.
func AuthRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireSignedIn).Get("/microsoft/url", h.ServeMicrosoftAuthURL)
	r.Get("/microsoft/callback", h.ServeMicrosoftCallback)
	r.With(auth.RequireSignedIn).Get("/classroom/url", h.ServeClassroomAuthURL)
	r.Get("/classroom/callback", h.ServeClassroomCallback)
	return r
}

// Routes returns the subrouter mounted under /sync.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/microsoft/tareas", h.ServeMicrosoftTasks)
	r.Post("/microsoft/tareas", h.ServeMicrosoftCreateTask)
	r.Get("/classroom/cursos", h.ServeClassroomCourses)
	r.Post("/icloud/conectar", h.ServeICloudConnect)
	r.Get("/icloud/tareas", h.ServeICloudReminders)
	r.Post("/sync-all", h.ServeSyncAll)
	r.Get("/config", h.ServeConfig)
	r.Put("/config", h.ServeUpdateConfig)
	return r
}
