// internal/app/features/sync/syncall.go
package sync

import (
	"context"
	"fmt"
	"net/http"

	appsync "github.com/astren-app/astren/internal/app/sync"
	"github.com/astren-app/astren/internal/app/sync/icloud"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sync scheduling is not user-configurable yet; /sync/config reports these
// fixed values alongside the per-provider connection status.
const (
	autoSyncDefault     = true
	syncIntervalMinutes = 30
)

type syncConfigResponse struct {
	MicrosoftConectado bool `json:"microsoft_conectado"`
	ClassroomConectado bool `json:"classroom_conectado"`
	ICloudConectado    bool `json:"icloud_conectado"`
	AutoSync           bool `json:"auto_sync"`
	IntervaloMinutos   int  `json:"intervalo_minutos"`
}

// ServeConfig handles GET /sync/config: which services the signed-in user
// has connected, read from the stored credentials.
func (h *Handler) ServeConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	providers, err := h.Tokens.Providers(ctx, actor)
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: list providers", err)
		return
	}

	resp := syncConfigResponse{
		AutoSync:         autoSyncDefault,
		IntervaloMinutos: syncIntervalMinutes,
	}
	for _, p := range providers {
		switch p {
		case appsync.ProviderMicrosoft:
			resp.MicrosoftConectado = true
		case appsync.ProviderClassroom:
			resp.ClassroomConectado = true
		case appsync.ProviderICloud:
			resp.ICloudConectado = true
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

// ServeUpdateConfig handles PUT /sync/config. Scheduling preferences have
// no backing storage yet, so a well-formed request is acknowledged as-is.
func (h *Handler) ServeUpdateConfig(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorID(r); !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}
	var body map[string]any
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "configuración actualizada"})
}

type syncAllRequest struct {
	Servicios  []string `json:"servicios"`
	Calendario string   `json:"calendario"`
}

type syncAllResult struct {
	Tareas   []appsync.RemoteTask `json:"tareas"`
	Omitidos []string             `json:"omitidos"`
	Mensaje  string               `json:"mensaje"`
}

// ServeSyncAll handles POST /sync/sync-all: fetch tasks from every
// requested external service in one call. A service the user never
// connected, or one that fails to answer, lands in omitidos; the others
// still contribute their tasks. An empty servicios list means every
// connected service.
func (h *Handler) ServeSyncAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	var req syncAllRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	servicios := req.Servicios
	if len(servicios) == 0 {
		var err error
		servicios, err = h.Tokens.Providers(ctx, actor)
		if err != nil {
			httpjson.Internal(w, h.Log, "sync: list providers", err)
			return
		}
	}

	result := syncAllResult{Tareas: []appsync.RemoteTask{}, Omitidos: []string{}}
	synced := 0
	for _, servicio := range servicios {
		tasks, err := h.fetchProviderTasks(ctx, actor, servicio, req.Calendario)
		if err != nil {
			h.Log.Warn("sync-all: provider skipped",
				zap.String("provider", servicio),
				zap.Error(err))
			result.Omitidos = append(result.Omitidos, servicio)
			continue
		}
		result.Tareas = append(result.Tareas, tasks...)
		synced++
	}
	result.Mensaje = fmt.Sprintf("Sincronización completada con %d servicios", synced)

	httpjson.Write(w, http.StatusOK, result)
}

// fetchProviderTasks pulls the task list from one external service using
// the actor's stored credential.
func (h *Handler) fetchProviderTasks(ctx context.Context, actor primitive.ObjectID, provider, calendario string) ([]appsync.RemoteTask, error) {
	st, err := h.Tokens.Get(ctx, actor, provider)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	switch provider {
	case appsync.ProviderMicrosoft:
		return h.Microsoft.ListTasks(ctx, tokenFrom(st))

	case appsync.ProviderClassroom:
		token := tokenFrom(st)
		courses, err := h.Classroom.ListCourses(ctx, token)
		if err != nil {
			return nil, err
		}
		var tasks []appsync.RemoteTask
		for _, course := range courses {
			courseTasks, err := h.Classroom.ListTasks(ctx, token, course.RemoteID)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, courseTasks...)
		}
		return tasks, nil

	case appsync.ProviderICloud:
		if calendario == "" {
			return nil, fmt.Errorf("icloud: calendario es obligatorio")
		}
		reminders, err := h.ICloud.ListReminders(ctx, icloud.Credentials{
			AppleID:     st.AccessToken,
			AppPassword: st.RefreshToken,
		}, calendario)
		if err != nil {
			return nil, err
		}
		tasks := make([]appsync.RemoteTask, 0, len(reminders))
		for _, rem := range reminders {
			tasks = append(tasks, appsync.RemoteTask{
				RemoteID:   rem.UID,
				Titulo:     rem.Titulo,
				VenceEn:    rem.VenceEn,
				Completada: rem.Completada,
			})
		}
		return tasks, nil

	default:
		return nil, fmt.Errorf("servicio desconocido: %s", provider)
	}
}
