// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	taskstore "github.com/astren-app/astren/internal/app/store/tasks"
	"github.com/astren-app/astren/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// overdueSweep runs for the lifetime of the process; Shutdown stops it.
var overdueSweep *workers.OverdueSweep

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. Astren
// starts the overdue sweep here so derived vencida states are materialized
// even when no reads arrive.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	overdueSweep = workers.NewOverdueSweep(
		taskstore.New(deps.MongoDatabase),
		logger,
		appCfg.OverdueSweepInterval,
	)
	overdueSweep.Start()
	return nil
}
