// internal/app/features/groups/create.go
package groups

import (
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/groupformation"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

type createResponse struct {
	Message string       `json:"message"`
	Group   models.Group `json:"group"`
}

// HandleCreateGroup handles POST /api/groups. The signed-in student submits
// an idea, a supervisor and the full member list (including themself).
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupformation.Request
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.Log, "create group", err)
		return
	}
	actor, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "create group", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create group")
	defer cancel()

	g, err := h.Groups.CreateGroup(ctx, actor, req)
	if err != nil {
		respond.Error(w, r, h.Log, "create group", err)
		return
	}
	respond.JSON(w, http.StatusCreated, createResponse{Message: "Group registered successfully.", Group: g})
}
