// internal/app/features/sync/handler.go

// Package sync is the HTTP glue for the external task services: OAuth
// handshakes for Microsoft To Do and Google Classroom, credential checks
// for iCloud, and the list/create pass-through endpoints. OAuth state and
// tokens are persisted per user; nothing lives in process memory.
package sync

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	appsync "github.com/astren-app/astren/internal/app/sync"
	"github.com/astren-app/astren/internal/app/sync/classroom"
	"github.com/astren-app/astren/internal/app/sync/icloud"
	"github.com/astren-app/astren/internal/app/sync/microsoft"

	"github.com/astren-app/astren/internal/app/store/oauthstate"
	synctokenstore "github.com/astren-app/astren/internal/app/store/synctokens"
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/astren-app/astren/internal/app/system/httpjson"
	"github.com/astren-app/astren/internal/app/system/timeouts"
	"github.com/astren-app/astren/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// stateTTL bounds how long an OAuth handshake may sit between the /url and
// /callback legs.
const stateTTL = 10 * time.Minute

// Handler holds the dependencies for the sync endpoints.
type Handler struct {
	Microsoft *microsoft.Adapter
	Classroom *classroom.Adapter
	ICloud    *icloud.Adapter

	States *oauthstate.Store
	Tokens *synctokenstore.Store
	Log    *zap.Logger
}

// NewHandler constructs a sync Handler.
func NewHandler(
	ms *microsoft.Adapter,
	cr *classroom.Adapter,
	ic *icloud.Adapter,
	states *oauthstate.Store,
	tokens *synctokenstore.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Microsoft: ms,
		Classroom: cr,
		ICloud:    ic,
		States:    states,
		Tokens:    tokens,
		Log:       logger,
	}
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

// generateState returns a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// serveAuthURL runs the first OAuth leg for a provider: mint a state, park
// it in the state store bound to the signed-in user, and hand the consent
// URL back.
func (h *Handler) serveAuthURL(w http.ResponseWriter, r *http.Request, provider string, authURL func(state string) string, configured bool) {
	if !configured {
		httpjson.Error(w, http.StatusServiceUnavailable, "proveedor no configurado")
		return
	}
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	state, err := generateState()
	if err != nil {
		httpjson.Internal(w, h.Log, "oauth: generate state", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, actor, provider, time.Now().UTC().Add(stateTTL)); err != nil {
		httpjson.Internal(w, h.Log, "oauth: save state", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"url": authURL(state)})
}

// serveCallback runs the second OAuth leg: consume the one-time state,
// exchange the code, and upsert the user's token for the provider.
func (h *Handler) serveCallback(w http.ResponseWriter, r *http.Request, provider string, exchange func(ctx context.Context, code string) (*oauth2.Token, error)) {
	if e := r.URL.Query().Get("error"); e != "" {
		h.Log.Warn("oauth callback error",
			zap.String("provider", provider),
			zap.String("error", e))
		httpjson.Error(w, http.StatusBadRequest, "el proveedor rechazó la autorización")
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		httpjson.Error(w, http.StatusBadRequest, "state y code son obligatorios")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	usuarioID, stateProvider, valid, err := h.States.Consume(ctx, state)
	if err != nil {
		httpjson.Internal(w, h.Log, "oauth: consume state", err)
		return
	}
	if !valid || stateProvider != provider {
		httpjson.Error(w, http.StatusBadRequest, "state inválido o expirado")
		return
	}

	token, err := exchange(ctx, code)
	if err != nil {
		h.Log.Error("oauth exchange failed",
			zap.String("provider", provider),
			zap.Error(err))
		httpjson.Error(w, http.StatusBadRequest, "no se pudo canjear el código de autorización")
		return
	}

	st := models.SyncToken{
		UsuarioID:    usuarioID,
		Provider:     provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry.UTC()
		st.ExpiresAt = &expiry
	}
	if err := h.Tokens.Upsert(ctx, st); err != nil {
		httpjson.Internal(w, h.Log, "oauth: store token", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"mensaje": "cuenta conectada", "provider": provider})
}

// tokenFrom rebuilds an oauth2 token from a stored credential.
func tokenFrom(st models.SyncToken) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
	}
	if st.ExpiresAt != nil {
		token.Expiry = *st.ExpiresAt
	}
	return token
}

// userToken loads the stored credential for (actor, provider) and rebuilds
// an oauth2 token from it.
func (h *Handler) userToken(ctx context.Context, w http.ResponseWriter, r *http.Request, provider string) (*oauth2.Token, bool) {
	actor, ok := actorID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "no autenticado")
		return nil, false
	}

	st, err := h.Tokens.Get(ctx, actor, provider)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.Error(w, http.StatusNotFound, "cuenta no conectada")
		return nil, false
	}
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: load token", err)
		return nil, false
	}

	return tokenFrom(st), true
}

// ServeMicrosoftAuthURL handles GET /auth/microsoft/url.
func (h *Handler) ServeMicrosoftAuthURL(w http.ResponseWriter, r *http.Request) {
	h.serveAuthURL(w, r, appsync.ProviderMicrosoft, h.Microsoft.AuthURL, h.Microsoft.IsConfigured())
}

// ServeMicrosoftCallback handles GET /auth/microsoft/callback.
func (h *Handler) ServeMicrosoftCallback(w http.ResponseWriter, r *http.Request) {
	h.serveCallback(w, r, appsync.ProviderMicrosoft, h.Microsoft.Exchange)
}

// ServeMicrosoftTasks handles GET /sync/microsoft/tareas.
func (h *Handler) ServeMicrosoftTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	token, ok := h.userToken(ctx, w, r, appsync.ProviderMicrosoft)
	if !ok {
		return
	}

	tasks, err := h.Microsoft.ListTasks(ctx, token)
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: list microsoft tasks", err)
		return
	}
	httpjson.Write(w, http.StatusOK, tasks)
}

// ServeMicrosoftCreateTask handles POST /sync/microsoft/tareas.
func (h *Handler) ServeMicrosoftCreateTask(w http.ResponseWriter, r *http.Request) {
	var task appsync.RemoteTask
	if err := httpjson.Decode(r, &task); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "cuerpo de solicitud inválido")
		return
	}
	if task.Titulo == "" {
		httpjson.Error(w, http.StatusBadRequest, "titulo es obligatorio")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	token, ok := h.userToken(ctx, w, r, appsync.ProviderMicrosoft)
	if !ok {
		return
	}

	if err := h.Microsoft.CreateTask(ctx, token, task); err != nil {
		httpjson.Internal(w, h.Log, "sync: create microsoft task", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"mensaje": "tarea creada en Microsoft To Do"})
}

// ServeClassroomAuthURL handles GET /auth/classroom/url.
func (h *Handler) ServeClassroomAuthURL(w http.ResponseWriter, r *http.Request) {
	h.serveAuthURL(w, r, appsync.ProviderClassroom, h.Classroom.AuthURL, h.Classroom.IsConfigured())
}

// ServeClassroomCallback handles GET /auth/classroom/callback.
func (h *Handler) ServeClassroomCallback(w http.ResponseWriter, r *http.Request) {
	h.serveCallback(w, r, appsync.ProviderClassroom, h.Classroom.Exchange)
}

// ServeClassroomCourses handles GET /sync/classroom/cursos.
func (h *Handler) ServeClassroomCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	token, ok := h.userToken(ctx, w, r, appsync.ProviderClassroom)
	if !ok {
		return
	}

	courses, err := h.Classroom.ListCourses(ctx, token)
	if err != nil {
		httpjson.Internal(w, h.Log, "sync: list classroom courses", err)
		return
	}
	httpjson.Write(w, http.StatusOK, courses)
}
