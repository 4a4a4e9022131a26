// internal/app/features/grupos/members.go
package grupos

import (
	"context"
	"errors"
	"net/http"

	"github.com/astren-app/astren/internal/app/membership"
	invitationstore "github.com/astren-app/astren/internal/app/store/invitations"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/normalize"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type inviteRequest struct {
	Email string `json:"email"`
	Rol   string `json:"rol"`
}

// ServeInvite handles POST /grupos/{id}/invitar.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	grupoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req inviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if normalize.Email(req.Email) == "" {
		httpjson.Error(w, http.StatusBadRequest, "email es obligatorio")
		return
	}
	rol := req.Rol
	if rol == "" {
		rol = status.RoleMember
	}
	if !status.ValidRole(rol) {
		httpjson.Error(w, http.StatusBadRequest, "rol inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.requireLeader(ctx, w, r, grupoID) {
		return
	}
	actor, _ := actorID(r)

	inv, err := h.Manager.InviteMember(ctx, grupoID, req.Email, rol, actor)
	switch {
	case errors.Is(err, membership.ErrGroupNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, membership.ErrUserNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, membership.ErrAlreadyMember):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, invitationstore.ErrInvitationPending):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		httpjson.Internal(w, h.Log, "invite member", err)
	default:
		httpjson.Write(w, http.StatusCreated, inv)
	}
}

// ServeRemoveMember handles DELETE /grupos/{id}/miembros/{usuarioID}.
func (h *Handler) ServeRemoveMember(w http.ResponseWriter, r *http.Request) {
	grupoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "usuarioID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireLeader(ctx, w, r, grupoID) {
		return
	}

	err = h.Manager.RemoveMember(ctx, grupoID, usuarioID)
	switch {
	case errors.Is(err, membership.ErrGroupNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, membership.ErrCreatorImmutable):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, membership.ErrNotMember):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case err != nil:
		httpjson.Internal(w, h.Log, "remove member", err)
	default:
		httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "miembro removido"})
	}
}

type rolRequest struct {
	Rol string `json:"rol"`
}

// ServeChangeRole handles PUT /grupos/{id}/miembros/{usuarioID}/rol.
func (h *Handler) ServeChangeRole(w http.ResponseWriter, r *http.Request) {
	grupoID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "usuarioID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	var req rolRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if !status.ValidRole(req.Rol) {
		httpjson.Error(w, http.StatusBadRequest, "rol inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireLeader(ctx, w, r, grupoID) {
		return
	}

	err = h.Manager.ChangeRole(ctx, grupoID, usuarioID, req.Rol)
	switch {
	case errors.Is(err, membership.ErrGroupNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, membership.ErrCreatorImmutable):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, membership.ErrNotMember):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case err != nil:
		httpjson.Internal(w, h.Log, "change role", err)
	default:
		httpjson.Write(w, http.StatusOK, map[string]string{"rol": req.Rol})
	}
}
