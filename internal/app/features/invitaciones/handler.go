// internal/app/features/invitaciones/handler.go

// Package invitaciones exposes the invitee-facing half of the invitation
// lifecycle: accept, reject, archive, unarchive and the inbox listing.
package invitaciones

import (
	"context"
	"errors"
	"net/http"

	"github.com/astren-app/astren/internal/app/membership"
	invitationstore "github.com/astren-app/astren/internal/app/store/invitations"
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for invitation endpoints.
type Handler struct {
	Manager     *membership.Manager
	Invitations *invitationstore.Store
	Log         *zap.Logger
}

// NewHandler constructs an invitaciones Handler.
func NewHandler(mgr *membership.Manager, invitations *invitationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Manager: mgr, Invitations: invitations, Log: logger}
}

func actorID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

type acceptRequest struct {
	AreaPersonalID string `json:"area_personal_id"`
}

// ServeAccept handles POST /invitaciones/{id}/aceptar.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	invID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	var areaID *primitive.ObjectID
	if r.ContentLength > 0 {
		var req acceptRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
			return
		}
		if req.AreaPersonalID != "" {
			parsed, err := primitive.ObjectIDFromHex(req.AreaPersonalID)
			if err != nil {
				httpjson.Error(w, http.StatusBadRequest, "area_personal_id inválido")
				return
			}
			areaID = &parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	h.respond(w, "accept invitation",
		h.Manager.AcceptInvitation(ctx, invID, actor, areaID),
		map[string]string{"estado": "aceptada"})
}

// ServeReject handles POST /invitaciones/{id}/rechazar.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	invID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.respond(w, "reject invitation",
		h.Manager.RejectInvitation(ctx, invID, actor),
		map[string]string{"estado": "rechazada"})
}

// ServeArchive handles POST /invitaciones/{id}/archivar.
func (h *Handler) ServeArchive(w http.ResponseWriter, r *http.Request) {
	invID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.respond(w, "archive invitation",
		h.Manager.ArchiveInvitation(ctx, invID, actor),
		map[string]string{"estado": "archivada"})
}

// ServeUnarchive handles POST /invitaciones/{id}/desarchivar.
func (h *Handler) ServeUnarchive(w http.ResponseWriter, r *http.Request) {
	invID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	h.respond(w, "unarchive invitation",
		h.Manager.UnarchiveInvitation(ctx, invID, actor),
		map[string]string{"estado": "pendiente"})
}

// ServeList handles GET /invitaciones/{usuarioID}?estado=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	invs, err := h.Invitations.ListByUser(ctx, usuarioID, r.URL.Query().Get("estado"))
	if err != nil {
		httpjson.Internal(w, h.Log, "list invitations", err)
		return
	}

	httpjson.Write(w, http.StatusOK, invs)
}

// respond maps the manager's sentinels onto status codes.
func (h *Handler) respond(w http.ResponseWriter, op string, err error, ok map[string]string) {
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, ok)
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "invitación no encontrada")
	case errors.Is(err, membership.ErrBadInvitation):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, invitationstore.ErrBadTransition):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpjson.Internal(w, h.Log, op, err)
	}
}
