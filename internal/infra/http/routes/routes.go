// Package routes wires the HTTP handlers into the router.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mydetailarea/access/internal/config"
	"github.com/mydetailarea/access/internal/infra/http/handler"
	"github.com/mydetailarea/access/internal/infra/http/middleware"
	"github.com/mydetailarea/access/pkg/logger"
)

// Handlers holds the HTTP handlers for route registration.
type Handlers struct {
	Health *handler.HealthHandler
	Access *handler.AccessHandler
	Admin  *handler.AdminHandler
}

// New builds the router with the full middleware stack and all routes.
func New(cfg *config.Config, log *logger.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Order matters: recovery outermost, then request ID so every later
	// stage can log it.
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.Logger(log),
	)

	r.Get("/healthz", h.Health.Health)
	r.Get("/readyz", h.Health.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", h.Access.GetCatalog)
		r.Get("/catalog/modules", h.Access.GetModules)

		r.Route("/dealerships/{dealershipID}", func(r chi.Router) {
			r.Put("/modules/{module}", h.Admin.SetModuleGrant)
			r.Post("/roles", h.Admin.CreateRole)

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/permissions", h.Access.GetUserPermissions)
				r.Post("/roles", h.Admin.AssignRole)
				r.Delete("/roles/{roleID}", h.Admin.RemoveRole)
			})
		})

		r.Route("/roles/{roleID}", func(r chi.Router) {
			r.Delete("/", h.Admin.DeactivateRole)
			r.Put("/gates/{module}", h.Admin.SetModuleGate)
			r.Post("/grants", h.Admin.GrantAction)
			r.Delete("/grants/{action}", h.Admin.RevokeAction)
		})

		r.Post("/cache/flush", h.Admin.FlushCache)
	})

	return r
}
