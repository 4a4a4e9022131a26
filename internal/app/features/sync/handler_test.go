package sync_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	syncfeature "github.com/astren-app/astren/internal/app/features/sync"
	"github.com/astren-app/astren/internal/app/store/oauthstate"
	synctokenstore "github.com/astren-app/astren/internal/app/store/synctokens"
	appsync "github.com/astren-app/astren/internal/app/sync"
	"github.com/astren-app/astren/internal/app/sync/classroom"
	"github.com/astren-app/astren/internal/app/sync/icloud"
	"github.com/astren-app/astren/internal/app/sync/microsoft"
	"github.com/astren-app/astren/internal/domain/models"
	"github.com/astren-app/astren/internal/testutil"
	"go.uber.org/zap"
)

type testEnv struct {
	handler  *syncfeature.Handler
	ms       *microsoft.Adapter
	ic       *icloud.Adapter
	states   *oauthstate.Store
	tokens   *synctokenstore.Store
	fixtures *testutil.Fixtures
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	ms := &microsoft.Adapter{ClientID: "ms-id", ClientSecret: "ms-secret", RedirectURL: "http://localhost/auth/microsoft/callback"}
	cr := &classroom.Adapter{ClientID: "cr-id", ClientSecret: "cr-secret", RedirectURL: "http://localhost/auth/classroom/callback"}
	ic := &icloud.Adapter{}
	states := oauthstate.New(db)
	tokens := synctokenstore.New(db)

	return &testEnv{
		handler:  syncfeature.NewHandler(ms, cr, ic, states, tokens, zap.NewNop()),
		ms:       ms,
		ic:       ic,
		states:   states,
		tokens:   tokens,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func TestServeMicrosoftAuthURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewAuthenticatedRequest("GET", "/auth/microsoft/url", testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftAuthURL(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	parsed, err := url.Parse(body.URL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	state := parsed.Query().Get("state")
	if state == "" {
		t.Fatal("auth url must carry a state parameter")
	}

	// The state must be consumable exactly once and bound to the user.
	usuarioID, provider, valid, err := env.states.Consume(ctx, state)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !valid {
		t.Fatal("freshly minted state must be valid")
	}
	if usuarioID != user.ID {
		t.Errorf("state usuario: got %s, want %s", usuarioID.Hex(), user.ID.Hex())
	}
	if provider != appsync.ProviderMicrosoft {
		t.Errorf("state provider: got %q, want %q", provider, appsync.ProviderMicrosoft)
	}
}

func TestServeMicrosoftAuthURL_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest("GET", "/auth/microsoft/url")
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftAuthURL(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeMicrosoftAuthURL_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.ms.ClientID = ""
	env.ms.ClientSecret = ""

	req := testutil.NewAuthenticatedRequest("GET", "/auth/microsoft/url", testutil.SomeUser())
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftAuthURL(rec, req)

	rec.AssertStatus(t, http.StatusServiceUnavailable)
}

func TestServeMicrosoftCallback_ProviderError(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest("GET", "/auth/microsoft/callback?error=access_denied")
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftCallback(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeMicrosoftCallback_MissingParams(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest("GET", "/auth/microsoft/callback?code=abc")
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftCallback(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeMicrosoftCallback_UnknownState(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest("GET", "/auth/microsoft/callback?state=nope&code=abc")
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftCallback(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeMicrosoftCallback_WrongProviderState(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	if err := env.states.Save(ctx, "cross-state", user.ID, appsync.ProviderClassroom, time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	req := testutil.NewRequest("GET", "/auth/microsoft/callback?state=cross-state&code=abc")
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftCallback(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeMicrosoftTasks_NotConnected(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewAuthenticatedRequest("GET", "/sync/microsoft/tareas", testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftTasks(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeMicrosoftTasks_Connected(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/todo/lists":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]string{{"id": "default-list", "wellknownListName": "defaultList"}},
			})
		case "/me/todo/lists/default-list/tasks":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"id": "t1", "title": "Leer capítulo 3", "status": "notStarted"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	env.ms.BaseURL = srv.URL

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	if err := env.tokens.Upsert(ctx, models.SyncToken{
		UsuarioID:   user.ID,
		Provider:    appsync.ProviderMicrosoft,
		AccessToken: "stored-access-token",
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/sync/microsoft/tareas", testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	env.handler.ServeMicrosoftTasks(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Leer capítulo 3")
}

func TestServeICloudConnect(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer srv.Close()
	env.ic.BaseURL = srv.URL

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewAuthenticatedRequest("POST", "/sync/icloud/conectar", testutil.UserFor(user.ID))
	req = withJSONBody(t, req, `{"apple_id":"ana@example.com","app_password":"abcd-efgh-ijkl-mnop"}`)
	rec := testutil.NewRecorder()
	env.handler.ServeICloudConnect(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	st, err := env.tokens.Get(ctx, user.ID, appsync.ProviderICloud)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.AccessToken != "ana@example.com" || st.RefreshToken != "abcd-efgh-ijkl-mnop" {
		t.Errorf("stored credentials mismatch: %+v", st)
	}
}

func TestServeICloudConnect_Rejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	env.ic.BaseURL = srv.URL

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewAuthenticatedRequest("POST", "/sync/icloud/conectar", testutil.UserFor(user.ID))
	req = withJSONBody(t, req, `{"apple_id":"ana@example.com","app_password":"bad"}`)
	rec := testutil.NewRecorder()
	env.handler.ServeICloudConnect(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeICloudReminders_MissingCalendar(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	req := testutil.NewAuthenticatedRequest("GET", "/sync/icloud/tareas", testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	env.handler.ServeICloudReminders(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeConfig_ReportsConnections(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	for _, provider := range []string{appsync.ProviderMicrosoft, appsync.ProviderICloud} {
		if err := env.tokens.Upsert(ctx, models.SyncToken{
			UsuarioID:   user.ID,
			Provider:    provider,
			AccessToken: "stored",
		}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	req := testutil.NewAuthenticatedRequest("GET", "/sync/config", testutil.UserFor(user.ID))
	rec := testutil.NewRecorder()
	env.handler.ServeConfig(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var cfg struct {
		Microsoft bool `json:"microsoft_conectado"`
		Classroom bool `json:"classroom_conectado"`
		ICloud    bool `json:"icloud_conectado"`
		AutoSync  bool `json:"auto_sync"`
		Intervalo int  `json:"intervalo_minutos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !cfg.Microsoft || !cfg.ICloud {
		t.Errorf("connected providers not reported: %+v", cfg)
	}
	if cfg.Classroom {
		t.Error("classroom reported connected without a stored credential")
	}
	if !cfg.AutoSync || cfg.Intervalo != 30 {
		t.Errorf("scheduling defaults: %+v", cfg)
	}
}

func TestServeConfig_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	req := testutil.NewRequest("GET", "/sync/config")
	rec := testutil.NewRecorder()
	env.handler.ServeConfig(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeSyncAll_AggregatesAndSkips(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/todo/lists":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]string{{"id": "default-list", "wellknownListName": "defaultList"}},
			})
		case "/me/todo/lists/default-list/tasks":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"id": "t1", "title": "Leer capítulo 3", "status": "notStarted"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	env.ms.BaseURL = srv.URL

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	if err := env.tokens.Upsert(ctx, models.SyncToken{
		UsuarioID:   user.ID,
		Provider:    appsync.ProviderMicrosoft,
		AccessToken: "stored-access-token",
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// iCloud was never connected; it must be skipped, not fail the call.
	req := testutil.NewAuthenticatedRequest("POST", "/sync/sync-all", testutil.UserFor(user.ID))
	req = withJSONBody(t, req, `{"servicios":["microsoft","icloud"]}`)
	rec := testutil.NewRecorder()
	env.handler.ServeSyncAll(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var result struct {
		Tareas   []appsync.RemoteTask `json:"tareas"`
		Omitidos []string             `json:"omitidos"`
		Mensaje  string               `json:"mensaje"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Tareas) != 1 || result.Tareas[0].Titulo != "Leer capítulo 3" {
		t.Errorf("tareas: got %+v, want the Microsoft task", result.Tareas)
	}
	if len(result.Omitidos) != 1 || result.Omitidos[0] != appsync.ProviderICloud {
		t.Errorf("omitidos: got %v, want [icloud]", result.Omitidos)
	}
	if result.Mensaje != "Sincronización completada con 1 servicios" {
		t.Errorf("mensaje: got %q", result.Mensaje)
	}
}

func TestServeSyncAll_DefaultsToConnectedServices(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/todo/lists":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]string{{"id": "default-list", "wellknownListName": "defaultList"}},
			})
		case "/me/todo/lists/default-list/tasks":
			json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"id": "t1", "title": "Ensayo final", "status": "notStarted"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	env.ms.BaseURL = srv.URL

	user := env.fixtures.CreateUser(ctx, "Ana", "ana@example.com")
	if err := env.tokens.Upsert(ctx, models.SyncToken{
		UsuarioID:   user.ID,
		Provider:    appsync.ProviderMicrosoft,
		AccessToken: "stored-access-token",
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("POST", "/sync/sync-all", testutil.UserFor(user.ID))
	req = withJSONBody(t, req, `{}`)
	rec := testutil.NewRecorder()
	env.handler.ServeSyncAll(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Ensayo final")
	rec.AssertContains(t, "Sincronización completada con 1 servicios")
}

// withJSONBody rebuilds an authenticated request with a JSON body, keeping
// the session user already attached to the context.
func withJSONBody(t *testing.T, r *http.Request, body string) *http.Request {
	t.Helper()
	clone := testutil.NewJSONRequest(r.Method, r.URL.String(), body)
	return clone.WithContext(r.Context())
}
