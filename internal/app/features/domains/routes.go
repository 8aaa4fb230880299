// internal/app/features/domains/routes.go
package domains

import (
	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

// Routes is mounted at /api/domains. Reads are public; writes are admin-only.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn, auth.RequireRole(models.RoleAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
	})
	return r
}

// SupervisorRoutes is mounted at /api/domains-supervisors.
func SupervisorRoutes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireSignedIn)
	r.Get("/", h.ServeSupervisors)
	return r
}
