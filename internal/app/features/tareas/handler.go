// internal/app/features/tareas/handler.go

// Package tareas covers personal and group tasks: CRUD, soft delete, and
// the multi-assign fan-out for group leaders.
package tareas

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/astren-app/astren/internal/app/notify"
	"github.com/astren-app/astren/internal/app/policy/grouppolicy"
	groupareastore "github.com/astren-app/astren/internal/app/store/groupareas"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/paging"
	"github.com/astren-app/astren/internal/app/system/status"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the dependencies for task endpoints.
type Handler struct {
	Tasks      *taskstore.Store
	Members    *membershipstore.Store
	GroupAreas *groupareastore.Store
	Notifier   *notify.Notifier
	Log        *zap.Logger
}

// NewHandler constructs a tareas Handler.
func NewHandler(tasks *taskstore.Store, members *membershipstore.Store, groupAreas *groupareastore.Store, notifier *notify.Notifier, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Members: members, GroupAreas: groupAreas, Notifier: notifier, Log: logger}
}

type taskRequest struct {
	UsuarioID   string     `json:"usuario_id"`
	AreaID      string     `json:"area_id"`
	GrupoID     string     `json:"grupo_id"`
	Titulo      string     `json:"titulo"`
	Descripcion string     `json:"descripcion"`
	VenceEn     *time.Time `json:"vence_en"`
}

// ServeCreate handles POST /tareas. Group tasks require the creator to hold
// a role that may create tasks in that group.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	usuarioID, err := primitive.ObjectIDFromHex(req.UsuarioID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	task := models.Task{
		UsuarioID:   usuarioID,
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		VenceEn:     req.VenceEn,
	}
	if req.AreaID != "" {
		areaID, err := primitive.ObjectIDFromHex(req.AreaID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "area_id inválido")
			return
		}
		task.AreaID = &areaID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if req.GrupoID != "" {
		grupoID, err := primitive.ObjectIDFromHex(req.GrupoID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "grupo_id inválido")
			return
		}
		allowed, err := grouppolicy.CanCreateTasks(ctx, h.Members, grupoID, usuarioID)
		if err != nil {
			httpjson.Internal(w, h.Log, "create task: policy check", err)
			return
		}
		if !allowed {
			httpjson.Error(w, http.StatusForbidden, "no autorizado para crear tareas en este grupo")
			return
		}
		task.GrupoID = &grupoID
	}

	created, err := h.Tasks.Create(ctx, task)
	switch {
	case errors.Is(err, taskstore.ErrDuplicateTask):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		httpjson.Internal(w, h.Log, "create task", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /tareas/{usuarioID}?limit=&offset=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	limit, offset := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tasks, err := h.Tasks.ListByUser(ctx, usuarioID, limit, offset)
	if err != nil {
		httpjson.Internal(w, h.Log, "list tasks", err)
		return
	}

	httpjson.Write(w, http.StatusOK, tasks)
}

// ServeUpdate handles PUT /tareas/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req taskRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	var areaID *primitive.ObjectID
	if req.AreaID != "" {
		parsed, err := primitive.ObjectIDFromHex(req.AreaID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "area_id inválido")
			return
		}
		areaID = &parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.Tasks.UpdateInfo(ctx, id, req.Titulo, req.Descripcion, areaID, req.VenceEn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "tarea no encontrada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update task", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "tarea actualizada"})
}

type estadoRequest struct {
	Estado string `json:"estado"`
}

// ServeUpdateEstado handles PUT /tareas/{id}/estado.
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

	task, err := h.Tasks.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && task.Estado == status.TaskDeleted) {
		httpjson.Error(w, http.StatusNotFound, "tarea no encontrada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update task estado: get", err)
		return
	}

	err = h.Tasks.UpdateEstado(ctx, id, task.Estado, req.Estado)
	if errors.Is(err, taskstore.ErrBadTransition) {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update task estado", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"estado": req.Estado})
}

// ServeDelete handles DELETE /tareas/{id}: a soft delete via estado.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	task, err := h.Tasks.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && task.Estado == status.TaskDeleted) {
		httpjson.Error(w, http.StatusNotFound, "tarea no encontrada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "delete task: get", err)
		return
	}

	if err := h.Tasks.UpdateEstado(ctx, id, task.Estado, status.TaskDeleted); err != nil {
		httpjson.Internal(w, h.Log, "delete task", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "tarea eliminada"})
}
