// internal/app/features/sessions/routes.go
package sessions

import (
	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

// Routes is mounted at /api/sessions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/active", h.ServeActive)
	return r
}

// PolicyRoutes is mounted at /api/session-policy.
func PolicyRoutes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireSignedIn)
	r.Get("/", h.ServePolicy)
	return r
}

// AdminRoutes adds the admin-only session write under /api/admins.
func AdminRoutes(h *Handler, mw *auth.Middleware) func(chi.Router) {
	return func(r chi.Router) {
		r.With(mw.RequireSignedIn, auth.RequireRole(models.RoleAdmin)).Post("/save-session", h.HandleSavePolicy)
	}
}
