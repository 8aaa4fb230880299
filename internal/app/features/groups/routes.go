// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
)

// Routes is mounted at /api/groups. Role checks live in the coordinator so
// that a missing active session is reported before a wrong role.
func Routes(h *Handler, mw *auth.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireSignedIn)

		pr.Post("/", h.HandleCreateGroup)
		pr.Get("/", h.ServeGroupsList)
		pr.Get("/mine", h.ServeMyGroup)
		pr.Get("/available-students", h.ServeAvailableStudents)
	})

	return r
}
