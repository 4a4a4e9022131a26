// internal/app/features/areas/handler.go

// Package areas covers the personal organizational buckets that tasks are
// filed under.
package areas

import (
	"context"
	"errors"
	"net/http"

	areastore "github.com/astren-app/astren/internal/app/store/areas"
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

// Handler holds the dependencies for area endpoints.
type Handler struct {
	Areas *areastore.Store
	Log   *zap.Logger
}

// NewHandler constructs an areas Handler.
func NewHandler(areas *areastore.Store, logger *zap.Logger) *Handler {
	return &Handler{Areas: areas, Log: logger}
}

type areaRequest struct {
	UsuarioID   string `json:"usuario_id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Color       string `json:"color"`
	Icono       string `json:"icono"`
}

// ServeCreate handles POST /areas.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	usuarioID, err := primitive.ObjectIDFromHex(req.UsuarioID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}
	nombre := htmlsanitize.Sanitize(req.Nombre)
	if nombre == "" {
		httpjson.Error(w, http.StatusBadRequest, "nombre es obligatorio")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	area, err := h.Areas.Create(ctx, models.Area{
		UsuarioID:   usuarioID,
		Nombre:      nombre,
		Descripcion: htmlsanitize.Sanitize(req.Descripcion),
		Color:       req.Color,
		Icono:       req.Icono,
	})
	if err != nil {
		httpjson.Internal(w, h.Log, "create area", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, area)
}

// ServeList handles GET /areas/{usuarioID}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "usuario_id inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	areas, err := h.Areas.ListByUser(ctx, usuarioID)
	if err != nil {
		httpjson.Internal(w, h.Log, "list areas", err)
		return
	}

	httpjson.Write(w, http.StatusOK, areas)
}

// ServeUpdate handles PUT /areas/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "id inválido")
		return
	}

	var req areaRequest
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

	err = h.Areas.UpdateInfo(ctx, id, nombre, htmlsanitize.Sanitize(req.Descripcion), req.Color, req.Icono)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "área no encontrada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update area", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "área actualizada"})
}

type estadoRequest struct {
	Estado string `json:"estado"`
}

// ServeUpdateEstado handles PUT /areas/{id}/estado.
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

	area, err := h.Areas.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && status.AreaGone(area.Estado)) {
		httpjson.Error(w, http.StatusNotFound, "área no encontrada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update area estado: get", err)
		return
	}

	err = h.Areas.UpdateEstado(ctx, id, area.Estado, req.Estado)
	if errors.Is(err, areastore.ErrBadTransition) {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "update area estado", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"estado": req.Estado})
}
