// internal/app/features/grupos/handler.go

// Package grupos exposes group CRUD plus the membership operations that the
// membership manager owns: invites, member removal and role changes.
package grupos

import (
	"context"
	"errors"
	"net/http"

	"github.com/astren-app/astren/internal/app/membership"
	"github.com/astren-app/astren/internal/app/policy/grouppolicy"
	groupstore "github.com/astren-app/astren/internal/app/store/groups"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/astren-app/astren/internal/app/system/htmlsanitize"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for group endpoints.
type Handler struct {
	Manager *membership.Manager
	Groups  *groupstore.Store
	Members *membershipstore.Store
	Log     *zap.Logger
}

// NewHandler constructs a grupos Handler.
func NewHandler(mgr *membership.Manager, groups *groupstore.Store, members *membershipstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Manager: mgr, Groups: groups, Members: members, Log: logger}
}

// actorID resolves the signed-in user id from the request context.
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

// requireLeader answers whether the actor may manage the group, writing the
// error response when they may not.
func (h *Handler) requireLeader(ctx context.Context, w http.ResponseWriter, r *http.Request, grupoID primitive.ObjectID) bool {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return false
	}
	allowed, err := grouppolicy.CanManageGroup(ctx, h.Members, grupoID, actor)
	if err != nil {
		httpjson.Internal(w, h.Log, "group: leader check", err)
		return false
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "requiere rol lider en el grupo")
		return false
	}
	return true
}

type groupRequest struct {
	CreadorID      string `json:"creador_id"`
	Nombre         string `json:"nombre"`
	Descripcion    string `json:"descripcion"`
	Color          string `json:"color"`
	Icono          string `json:"icono"`
	AreaPersonalID string `json:"area_personal_id"`
}

// ServeCreate handles POST /grupos.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	creadorID, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}
	// The creator is always the signed-in user. A creador_id naming
	// someone else is rejected rather than silently overridden.
	if req.CreadorID != "" && req.CreadorID != creadorID.Hex() {
		httpjson.Error(w, http.StatusForbidden, "creador_id no coincide con la sesión")
		return
	}
	nombre := htmlsanitize.Sanitize(req.Nombre)
	if nombre == "" {
		httpjson.Error(w, http.StatusBadRequest, "nombre es obligatorio")
		return
	}

	var areaID *primitive.ObjectID
	if req.AreaPersonalID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.AreaPersonalID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "area_personal_id inválido")
			return
		}
		areaID = &parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	group, err := h.Manager.CreateGroup(ctx, models.Group{
		CreadorID:   creadorID,
		Nombre:      nombre,
		Descripcion: htmlsanitize.Sanitize(req.Descripcion),
		Color:       req.Color,
		Icono:       req.Icono,
	}, areaID)
	if err != nil {
		httpjson.Internal(w, h.Log, "create group", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, group)
}

// ServeList handles GET /grupos/{usuarioID}: the user's active groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.listByEstado(w, r, status.GroupActive)
}

// ServeListArchived handles GET /grupos/{usuarioID}/archivados.
func (h *Handler) ServeListArchived(w http.ResponseWriter, r *http.Request) {
	h.listByEstado(w, r, status.GroupArchived)
}

func (h *Handler) listByEstado(w http.ResponseWriter, r *http.Request, estado string) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Members.GroupIDsByUser(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "list groups: memberships", err)
		return
	}

	groups, err := h.Groups.ListByIDs(ctx, ids, estado)
	if err != nil {
		httpjson.Internal(w, h.Log, "list groups", err)
		return
	}

	httpjson.Write(w, http.StatusOK, groups)
}

// ServeUpdate handles PUT /grupos/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req groupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	nombre := htmlsanitize.Sanitize(req.Nombre)
	if nombre == "" {
		httpjson.Error(w, http.StatusBadRequest, "nombre es obligatorio")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireLeader(ctx, w, r, id) {
		return
	}

	err = h.Groups.UpdateInfo(ctx, id, nombre, htmlsanitize.Sanitize(req.Descripcion), req.Color, req.Icono)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "grupo no encontrado")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update group", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "grupo actualizado"})
}

type estadoRequest struct {
	Estado string `json:"estado"`
}

// ServeUpdateEstado handles PUT /grupos/{id}/estado: archive, unarchive and
// soft delete.
func (h *Handler) ServeUpdateEstado(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req estadoRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if !h.requireLeader(ctx, w, r, id) {
		return
	}

	group, err := h.Groups.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && status.GroupGone(group.Estado)) {
		httpjson.Error(w, http.StatusNotFound, "grupo no encontrado")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update group estado: get", err)
		return
	}

	err = h.Groups.UpdateEstado(ctx, id, group.Estado, req.Estado)
	if errors.Is(err, groupstore.ErrBadTransition) {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update group estado", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"estado": req.Estado})
}

// ServeListMembers handles GET /grupos/{id}/miembros.
func (h *Handler) ServeListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}
	isMember, err := grouppolicy.IsMember(ctx, h.Members, id, actor)
	if err != nil {
		httpjson.Internal(w, h.Log, "list members: member check", err)
		return
	}
	if !isMember {
		httpjson.Error(w, http.StatusForbidden, "requiere ser miembro del grupo")
		return
	}

	members, err := h.Members.ListByGroup(ctx, id)
	if err != nil {
		httpjson.Internal(w, h.Log, "list members", err)
		return
	}

	httpjson.Write(w, http.StatusOK, members)
}
