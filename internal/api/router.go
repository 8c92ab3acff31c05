// Package api wires the HTTP endpoints of the people-flow service.
package api

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-peopleflow/internal/api/docs"
	"go-peopleflow/internal/api/handler"
	"go-peopleflow/internal/config"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/metrics"
	"go-peopleflow/pkg/router"
)

// NewRouter builds the router with the global middleware stack and every
// route of the API.
func NewRouter(cfg config.ServerConfig, h *handler.Handler) *router.Router {
	r := router.New(
		RequestIDWithLogging(),
		chimiddleware.RealIP,
		router.RequestLogger(logging.WithComponent("http"), metrics.RecordAPIRequest),
		chimiddleware.Recoverer,
		CORS(cfg.CORSOrigins),
	)
	RegisterRoutes(r, h, RateLimit(cfg.RateLimit, cfg.RateWindow))
	return r
}

// RegisterRoutes mounts the endpoints on r. Middlewares apply to /api/v1.
func RegisterRoutes(r *router.Router, h *handler.Handler, middlewares ...func(http.Handler) http.Handler) {
	r.Handle("/metrics", promhttp.Handler())
	r.GET("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group("/api/v1", func(api *router.Router) {
		api.GET("/health", h.Health)

		api.POST("/aggregations", h.CreateAggregation)
		api.GET("/aggregations/{granularity}", h.GetAggregation)

		api.GET("/holidays", h.ListHolidays)
		api.GET("/holidays/{date}", h.GetDay)
		api.GET("/regions", h.ListRegions)
		api.GET("/regions/{office}", h.GetRegion)
		api.GET("/categories", h.ListCategories)

		api.GET("/favorites", h.ListFavorites)
		api.POST("/favorites", h.CreateFavorite)
		api.GET("/favorites/{id}", h.GetFavorite)
		api.PUT("/favorites/{id}", h.UpdateFavorite)
		api.DELETE("/favorites/{id}", h.DeleteFavorite)

		api.GET("/runs", h.ListRuns)
		api.GET("/runs/{id}", h.GetRun)
		api.GET("/download/{runID}/{filename}", h.DownloadFile)
	}, middlewares...)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)
}
