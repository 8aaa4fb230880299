// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

// StudentRoutes is mounted at /api/students.
func StudentRoutes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegisterStudent)
	r.Post("/login", h.HandleLoginStudent)
	r.With(mw.RequireSignedIn).Get("/me", h.ServeStudentMe)
	return r
}

// SupervisorRoutes is mounted at /api/supervisors.
func SupervisorRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegisterSupervisor)
	r.Post("/login", h.HandleLogin(models.RoleSupervisor))
	return r
}

// EvaluatorRoutes is mounted at /api/evaluators.
func EvaluatorRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegisterEvaluator)
	r.Post("/login", h.HandleLogin(models.RoleEvaluator))
	return r
}

// AdminRoutes is mounted at /api/admins. extra registers routes owned by
// other features under the same prefix (save-session).
func AdminRoutes(h *Handler, extra func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegisterAdmin)
	r.Post("/login", h.HandleLogin(models.RoleAdmin))
	if extra != nil {
		extra(r)
	}
	return r
}

// MeRoutes is mounted at /api/me.
func MeRoutes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireSignedIn)
	r.Get("/", h.ServeMe)
	r.Get("/logins", h.ServeLogins)
	return r
}
