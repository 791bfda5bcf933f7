// Package http assembles the gin engine and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/application/dashboard"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/prometheus"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/storage"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/interfaces/http/handlers"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/interfaces/http/middleware"
)

// NewRouter builds the full route tree.  metrics may be nil, which disables
// the /metrics endpoint and metric collection.
func NewRouter(cfg config.ServerConfig, svc *dashboard.Service, store storage.Store,
	log logging.Logger, m *prometheus.Metrics) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log, m),
		middleware.CORS(),
	)

	health := handlers.NewHealthHandler(store)
	engine.GET("/healthz", health.Healthz)
	engine.GET("/readyz", health.Readyz)
	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	dash := handlers.NewDashboardHandler(svc, log)
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/conferences", dash.ListDatasets)

		ds := v1.Group("/conferences/:conference/:year")
		{
			ds.GET("/summary", dash.Summary)
			ds.GET("/countries", dash.Countries)
			ds.GET("/countries/us-china-rest", dash.USChinaRest)
			ds.GET("/countries/regional", dash.Regional)
			ds.GET("/countries/top", dash.TopCountries)
			ds.GET("/institutions", dash.Institutions)
			ds.GET("/composition", dash.Composition)
			ds.GET("/export/:kind", dash.Export)
			ds.POST("/refresh", dash.Refresh)
		}
	}

	return engine
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
