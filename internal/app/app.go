package app

import (
	"github.com/gin-gonic/gin"

	"github.com/guttosm/xetrapulse/config"
	"github.com/guttosm/xetrapulse/internal/api"
	"github.com/guttosm/xetrapulse/internal/objectstore"
	"github.com/guttosm/xetrapulse/internal/service"
)

// InitializeApp sets up all API dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the source and target stores with OpenStores().
//   - Creates the query service over the target bucket.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes, one check per bucket.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	stores, cleanup, err := OpenStores(cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewQueryService(stores.Target, cfg.Report.KeyPrefix, cfg.Report.LedgerKey)
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(
		api.Check{Name: "source", Ping: objectstore.PingFunc(stores.Source)},
		api.Check{Name: "target", Ping: objectstore.PingFunc(stores.Target)},
	)
	healthHandler.Register(router)

	return router, cleanup, nil
}
