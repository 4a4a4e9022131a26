// internal/app/features/notificaciones/handler.go

// Package notificaciones covers the notification inbox: listing, unread
// counting, read flags and deletion.
package notificaciones

import (
	"context"
	"errors"
	"net/http"

	notificationstore "github.com/astren-app/astren/internal/app/store/notifications"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for notification endpoints.
type Handler struct {
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

// NewHandler constructs a notificaciones Handler.
func NewHandler(notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notifications, Log: logger}
}

// ServeList handles GET /notificaciones/{usuarioID}?solo_no_leidas=1.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	unreadOnly := r.URL.Query().Get("solo_no_leidas") == "1"
	list, err := h.Notifications.ListByUser(ctx, usuarioID, unreadOnly)
	if err != nil {
		httpjson.Internal(w, h.Log, "list notifications", err)
		return
	}

	httpjson.Write(w, http.StatusOK, list)
}

// ServeCountUnread handles GET /notificaciones/{usuarioID}/contar-no-leidas.
func (h *Handler) ServeCountUnread(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	count, err := h.Notifications.CountUnread(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "count unread notifications", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]int64{"no_leidas": count})
}

// ServeMarkRead handles PUT /notificaciones/{id}/leer.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "notificación no encontrada")
			return
		}
		httpjson.Internal(w, h.Log, "mark notification read", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "notificación leída"})
}

// ServeMarkAllRead handles PUT /notificaciones/{usuarioID}/leer-todas.
func (h *Handler) ServeMarkAllRead(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	count, err := h.Notifications.MarkAllRead(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "mark all notifications read", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]int64{"leidas": count})
}

// ServeDelete handles DELETE /notificaciones/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Notifications.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "notificación no encontrada")
			return
		}
		httpjson.Internal(w, h.Log, "delete notification", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "notificación eliminada"})
}
