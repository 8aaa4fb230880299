// internal/app/features/sessions/policy.go
package sessions

import (
	"net/http"
	"strings"

	"github.com/intellipmo/intellipmo/internal/app/registry"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/inputval"
	"github.com/intellipmo/intellipmo/internal/app/system/normalize"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
)

// ServePolicy handles GET /api/session-policy?department=&year=.
func (h *Handler) ServePolicy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dept := normalize.Department(q.Get("department"))
	year := strings.TrimSpace(q.Get("year"))
	if dept == "" || year == "" {
		respond.Error(w, r, h.Log, "session policy",
			apierr.ErrInvalidInput.WithMessage("Query parameters department and year are required."))
		return
	}
	if !inputval.IsSessionYear(year) {
		respond.Error(w, r, h.Log, "session policy",
			apierr.ErrInvalidInput.WithMessage("Year must be in format YYYY-YYYY (e.g. 2021-2025)."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "session policy")
	defer cancel()

	sess, err := h.Sessions.ResolvePolicy(ctx, year, dept)
	if err != nil {
		respond.Error(w, r, h.Log, "session policy", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"session": sess})
}

// HandleSavePolicy handles POST /api/admins/save-session. It creates or
// updates the (year, department) session and moves its status, activating or
// deactivating as needed.
func (h *Handler) HandleSavePolicy(w http.ResponseWriter, r *http.Request) {
	var in registry.PolicyInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.Error(w, r, h.Log, "save session", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "save session")
	defer cancel()

	sess, err := h.Sessions.UpsertPolicy(ctx, in)
	if err != nil {
		respond.Error(w, r, h.Log, "save session", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Session saved successfully.",
		"session": sess,
	})
}
