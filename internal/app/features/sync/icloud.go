// internal/app/features/sync/icloud.go
package sync

import (
	"context"
	"errors"
	"net/http"

	appsync "github.com/astren-app/astren/internal/app/sync"
	"github.com/astren-app/astren/internal/app/sync/icloud"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type icloudConnectRequest struct {
	AppleID      string `json:"apple_id"`
	AppPassword  string `json:"app_password"`
	CalendarPath string `json:"calendar_path"`
}

// ServeICloudConnect handles POST /sync/icloud/conectar: verify the Apple ID
// plus app-specific password pair against CalDAV and persist it. The pair is
// stored in the token row (AccessToken=AppleID, RefreshToken=password); the
// calendar path rides along as the provider metadata.
func (h *Handler) ServeICloudConnect(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	var req icloudConnectRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if req.AppleID == "" || req.AppPassword == "" {
		httpjson.Error(w, http.StatusBadRequest, "apple_id y app_password son obligatorios")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	creds := icloud.Credentials{AppleID: req.AppleID, AppPassword: req.AppPassword}
	if err := h.ICloud.Verify(ctx, creds); err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "iCloud rechazó las credenciales")
		return
	}

	if err := h.Tokens.Upsert(ctx, models.SyncToken{
		UsuarioID:    actor,
		Provider:     appsync.ProviderICloud,
		AccessToken:  req.AppleID,
		RefreshToken: req.AppPassword,
	}); err != nil {
		httpjson.Internal(w, h.Log, "sync: store icloud credentials", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "cuenta conectada", "provider": appsync.ProviderICloud})
}

// ServeICloudReminders handles GET /sync/icloud/tareas?calendario=.
func (h *Handler) ServeICloudReminders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	calendarPath := r.URL.Query().Get("calendario")
	if calendarPath == "" {
		httpjson.Error(w, http.StatusBadRequest, "calendario es obligatorio")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	st, err := h.Tokens.Get(ctx, actor, appsync.ProviderICloud)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "cuenta no conectada")
		return
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: load icloud credentials", err)
		return
	}

	reminders, err := h.ICloud.ListReminders(ctx, icloud.Credentials{
		AppleID:     st.AccessToken,
		AppPassword: st.RefreshToken,
	}, calendarPath)
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: list icloud reminders", err)
		return
	}
	httpjson.Write(w, http.StatusOK, reminders)
}
