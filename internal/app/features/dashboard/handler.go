// internal/app/features/dashboard/handler.go

// Package dashboard is a read-only fan-in: one call aggregates a user's
// tasks, areas, groups and unread notifications. No state transitions.
package dashboard

import (
	"context"
	"net/http"

	areastore "github.com/astren-app/astren/internal/app/store/areas"
	groupstore "github.com/astren-app/astren/internal/app/store/groups"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	notificationstore "github.com/astren-app/astren/internal/app/store/notifications"
	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the dashboard endpoint.
type Handler struct {
	Tasks         *taskstore.Store
	Areas         *areastore.Store
	Groups        *groupstore.Store
	Members       *membershipstore.Store
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

// NewHandler constructs a dashboard Handler.
func NewHandler(
	tasks *taskstore.Store,
	areas *areastore.Store,
	groups *groupstore.Store,
	members *membershipstore.Store,
	notifications *notificationstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Tasks:         tasks,
		Areas:         areas,
		Groups:        groups,
		Members:       members,
		Notifications: notifications,
		Log:           logger,
	}
}

type dashboardResponse struct {
	Tareas           []models.Task    `json:"tareas"`
	ConteosPorEstado map[string]int64 `json:"conteos_por_estado"`
	Areas            []models.Area    `json:"areas"`
	Grupos           []models.Group   `json:"grupos"`
	NoLeidas         int64            `json:"notificaciones_no_leidas"`
}

// Serve handles GET /dashboard/{usuarioID}.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	resp := dashboardResponse{}

	resp.Tareas, err = h.Tasks.ListByUser(ctx, usuarioID, 0, 0)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: tasks", err)
		return
	}
	resp.ConteosPorEstado, err = h.Tasks.CountByUserEstado(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: task counts", err)
		return
	}
	resp.Areas, err = h.Areas.ListByUser(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: areas", err)
		return
	}

	groupIDs, err := h.Members.GroupIDsByUser(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: memberships", err)
		return
	}
	resp.Grupos, err = h.Groups.ListByIDs(ctx, groupIDs, status.GroupActive)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: groups", err)
		return
	}

	resp.NoLeidas, err = h.Notifications.CountUnread(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "dashboard: unread count", err)
		return
	}

	httpjson.Write(w, http.StatusOK, resp)
}
