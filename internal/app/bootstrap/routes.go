// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	areasfeature "github.com/astren-app/astren/internal/app/features/areas"
	dashboardfeature "github.com/astren-app/astren/internal/app/features/dashboard"
	gruposfeature "github.com/astren-app/astren/internal/app/features/grupos"
	healthfeature "github.com/astren-app/astren/internal/app/features/health"
	invitacionesfeature "github.com/astren-app/astren/internal/app/features/invitaciones"
	notificacionesfeature "github.com/astren-app/astren/internal/app/features/notificaciones"
	syncfeature "github.com/astren-app/astren/internal/app/features/sync"
	tareasfeature "github.com/astren-app/astren/internal/app/features/tareas"
	usuariosfeature "github.com/astren-app/astren/internal/app/features/usuarios"
	"github.com/astren-app/astren/internal/app/membership"
	"github.com/astren-app/astren/internal/app/notify"
	areastore "github.com/astren-app/astren/internal/app/store/areas"
	groupareastore "github.com/astren-app/astren/internal/app/store/groupareas"
	groupstore "github.com/astren-app/astren/internal/app/store/groups"
	invitationstore "github.com/astren-app/astren/internal/app/store/invitations"
	membershipstore "github.com/astren-app/astren/internal/app/store/memberships"
	notificationstore "github.com/astren-app/astren/internal/app/store/notifications"
	"github.com/astren-app/astren/internal/app/store/oauthstate"
	synctokenstore "github.com/astren-app/astren/internal/app/store/synctokens"
	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	userstore "github.com/astren-app/astren/internal/app/store/users"
	"github.com/astren-app/astren/internal/app/sync/classroom"
	"github.com/astren-app/astren/internal/app/sync/icloud"
	"github.com/astren-app/astren/internal/app/sync/microsoft"
	"github.com/astren-app/astren/internal/app/system/auth"
	"github.com/astren-app/astren/internal/app/system/ratelimit"
	"github.com/astren-app/astren/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It builds the stores once, composes the membership
// manager on top of them, and mounts one feature router per API area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	users := userstore.New(db)
	areas := areastore.New(db)
	tasks := taskstore.New(db)
	groups := groupstore.New(db)
	members := membershipstore.New(db)
	invitations := invitationstore.New(db)
	groupAreas := groupareastore.New(db)
	notifications := notificationstore.New(db)
	states := oauthstate.New(db)
	tokens := synctokenstore.New(db)

	notifier := notify.New(notifications, logger)
	manager := &membership.Manager{
		Groups:      groups,
		Members:     members,
		Invitations: invitations,
		GroupAreas:  groupAreas,
		Areas:       areas,
		Users:       users,
		Txn:         txn.NewRunner(deps.MongoClient, logger),
		Notifier:    notifier,
	}

	msAdapter := &microsoft.Adapter{
		ClientID:     appCfg.MicrosoftClientID,
		ClientSecret: appCfg.MicrosoftClientSecret,
		RedirectURL:  appCfg.BaseURL + "/auth/microsoft/callback",
	}
	crAdapter := &classroom.Adapter{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		RedirectURL:  appCfg.BaseURL + "/auth/classroom/callback",
	}
	icAdapter := &icloud.Adapter{}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(auth.LoadSessionUser)

	// Frontend assets.
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	usuariosHandler := usuariosfeature.NewHandler(users, ratelimit.NewLoginLimiter(), logger)
	r.Mount("/usuarios", usuariosfeature.Routes(usuariosHandler))
	r.Post("/login", usuariosHandler.ServeLogin)

	areasHandler := areasfeature.NewHandler(areas, logger)
	r.Mount("/areas", areasfeature.Routes(areasHandler))

	tareasHandler := tareasfeature.NewHandler(tasks, members, groupAreas, notifier, logger)
	r.Mount("/tareas", tareasfeature.Routes(tareasHandler))

	gruposHandler := gruposfeature.NewHandler(manager, groups, members, logger)
	r.Mount("/grupos", gruposfeature.Routes(gruposHandler))

	invitacionesHandler := invitacionesfeature.NewHandler(manager, invitations, logger)
	r.Mount("/invitaciones", invitacionesfeature.Routes(invitacionesHandler))

	notificacionesHandler := notificacionesfeature.NewHandler(notifications, logger)
	r.Mount("/notificaciones", notificacionesfeature.Routes(notificacionesHandler))

	dashboardHandler := dashboardfeature.NewHandler(tasks, areas, groups, members, notifications, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	syncHandler := syncfeature.NewHandler(msAdapter, crAdapter, icAdapter, states, tokens, logger)
	r.Mount("/auth", syncfeature.AuthRoutes(syncHandler))
	r.Mount("/sync", syncfeature.Routes(syncHandler))

	return r, nil
}
