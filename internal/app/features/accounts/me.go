// internal/app/features/accounts/me.go
package accounts

import (
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

// ServeMe handles GET /api/me for any role.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	id, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "me", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": id})
}

// ServeStudentMe handles GET /api/students/me.
func (h *Handler) ServeStudentMe(w http.ResponseWriter, r *http.Request) {
	id, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "student me", err)
		return
	}
	if id.Role != models.RoleStudent {
		respond.Error(w, r, h.Log, "student me", apierr.ErrAccessDenied)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"student": id.Student})
}

const recentLogins = 10

// ServeLogins handles GET /api/me/logins: the caller's most recent logins.
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	id, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "login history", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login history")
	defer cancel()

	recs, err := h.Logins.ListRecent(ctx, id.Account().ID, id.Role, recentLogins)
	if err != nil {
		respond.Error(w, r, h.Log, "login history", apierr.Internal(err))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"logins": recs})
}
