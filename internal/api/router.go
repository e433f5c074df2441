package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/opsledger/catalog/internal/api/handlers"
	mw "github.com/opsledger/catalog/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret        []byte
	HealthHandler     *handlers.HealthHandler
	ComponentsHandler *handlers.ComponentsHandler
	ProjectsHandler   *handlers.ProjectsHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.Auth(dep.HMACSecret))

		api.Route("/components", func(cr chi.Router) {
			cr.Get("/", dep.ComponentsHandler.List)
			cr.With(mw.RequirePermission("admin")).Post("/", dep.ComponentsHandler.Create)
			// package URLs contain slashes, hence the wildcard routes
			cr.Get("/*", dep.ComponentsHandler.Get)
			cr.With(mw.RequirePermission("admin")).Patch("/*", dep.ComponentsHandler.Patch)
			cr.With(mw.RequirePermission("admin")).Delete("/*", dep.ComponentsHandler.Delete)
		})

		api.Route("/projects", func(pr chi.Router) {
			pr.Get("/{id}", dep.ProjectsHandler.Get)
			pr.Get("/{id}/components", dep.ProjectsHandler.ListComponents)
		})
	})

	return r
}
