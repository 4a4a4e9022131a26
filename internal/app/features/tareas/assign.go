// internal/app/features/tareas/assign.go
package tareas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/astren-app/astren/internal/app/notify"
	"github.com/astren-app/astren/internal/app/policy/grouppolicy"
	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type assignRequest struct {
	GrupoID     string     `json:"grupo_id"`
	AsignadoPor string     `json:"asignado_por"`
	UsuarioIDs  []string   `json:"usuario_ids"`
	Titulo      string     `json:"titulo"`
	Descripcion string     `json:"descripcion"`
	VenceEn     *time.Time `json:"vence_en"`
}

type assignResult struct {
	Asignadas []models.Task `json:"asignadas"`
	Omitidos  []string      `json:"omitidos"`
}

// ServeAssign handles POST /tareas/asignar: fan-out of one group task to
// several members. Targets that are not members of the group are skipped,
// not failed; each assigned copy is filed under the assignee's personal
// area mapping for the group when one exists.
func (h *Handler) ServeAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	grupoID, err := primitive.ObjectIDFromHex(req.GrupoID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "grupo_id inválido")
		return
	}
	asignadoPor, err := primitive.ObjectIDFromHex(req.AsignadoPor)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "asignado_por inválido")
		return
	}
	if len(req.UsuarioIDs) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "usuario_ids es obligatorio")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	allowed, err := grouppolicy.CanCreateTasks(ctx, h.Members, grupoID, asignadoPor)
	if err != nil {
		httpjson.Internal(w, h.Log, "assign tasks: policy check", err)
		return
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "no autorizado para asignar tareas en este grupo")
		return
	}

	result := assignResult{Asignadas: []models.Task{}, Omitidos: []string{}}
	for _, raw := range req.UsuarioIDs {
		targetID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			result.Omitidos = append(result.Omitidos, raw)
			continue
		}

		isMember, err := h.Members.Exists(ctx, grupoID, targetID)
		if err != nil {
			httpjson.Internal(w, h.Log, "assign tasks: membership check", err)
			return
		}
		if !isMember {
			result.Omitidos = append(result.Omitidos, raw)
			continue
		}

		task := models.Task{
			UsuarioID:   asignadoPor,
			GrupoID:     &grupoID,
			AsignadoAID: &targetID,
			Titulo:      req.Titulo,
			Descripcion: req.Descripcion,
			VenceEn:     req.VenceEn,
		}
		if mapping, err := h.GroupAreas.Get(ctx, grupoID, targetID); err == nil {
			task.AreaID = &mapping.AreaID
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Internal(w, h.Log, "assign tasks: area mapping", err)
			return
		}

		created, err := h.Tasks.Create(ctx, task)
		if errors.Is(err, taskstore.ErrDuplicateTask) {
			result.Omitidos = append(result.Omitidos, raw)
			continue
		}
		if err != nil {
			httpjson.Internal(w, h.Log, "assign tasks: create", err)
			return
		}
		result.Asignadas = append(result.Asignadas, created)

		h.Notifier.Notify(ctx, targetID, notify.TipoTareaAsignada,
			"Nueva tarea asignada",
			fmt.Sprintf("Se te asignó la tarea %q", created.Titulo),
			bson.M{
				"tarea_id":     created.ID,
				"grupo_id":     grupoID,
				"asignado_por": asignadoPor,
			})
	}

	h.Log.Info("group task fan-out",
		zap.String("grupo_id", grupoID.Hex()),
		zap.Int("asignadas", len(result.Asignadas)),
		zap.Int("omitidos", len(result.Omitidos)))

	httpjson.Write(w, http.StatusCreated, result)
}
