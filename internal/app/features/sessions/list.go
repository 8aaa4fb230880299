// internal/app/features/sessions/list.go
package sessions

import (
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/activation"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/normalize"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionOption struct {
	ID         primitive.ObjectID   `json:"id"`
	Year       string               `json:"year"`
	Department string               `json:"department"`
	Status     models.SessionStatus `json:"status"`
}

// ServeList handles GET /api/sessions[?status=].
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list sessions")
	defer cancel()

	list, err := h.Sessions.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		respond.Error(w, r, h.Log, "list sessions", err)
		return
	}
	out := make([]sessionOption, 0, len(list))
	for _, s := range list {
		out = append(out, sessionOption{ID: s.ID, Year: s.Year, Department: s.Department, Status: s.Status})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// ServeActive handles GET /api/sessions/active[?department=]. The department
// is required unless activation is global. The session is null when the
// scope has none.
func (h *Handler) ServeActive(w http.ResponseWriter, r *http.Request) {
	dept := normalize.Department(r.URL.Query().Get("department"))
	if dept == "" && h.Sessions.Scope() == activation.ScopeDepartment {
		respond.Error(w, r, h.Log, "active session",
			apierr.ErrInvalidInput.WithMessage("Query parameter department is required."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "active session")
	defer cancel()

	sess, err := h.Sessions.FindActive(ctx, dept)
	if err != nil {
		respond.Error(w, r, h.Log, "active session", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"session": sess})
}
