// internal/app/features/groups/list.go
package groups

import (
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

// ServeGroupsList handles GET /api/groups for supervisors and admins.
func (h *Handler) ServeGroupsList(w http.ResponseWriter, r *http.Request) {
	actor, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "list groups", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	list, err := h.Groups.ListGroups(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, "list groups", err)
		return
	}
	if list == nil {
		list = []models.Group{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"groups": list})
}

// ServeMyGroup handles GET /api/groups/mine.
func (h *Handler) ServeMyGroup(w http.ResponseWriter, r *http.Request) {
	actor, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "my group", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "my group")
	defer cancel()

	g, err := h.Groups.MyGroup(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, "my group", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"group": g})
}

// availableStudent is the member picker row; CGPA and credentials stay out.
type availableStudent struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	RollNo   string `json:"rollNo"`
	Email    string `json:"email"`
}

// ServeAvailableStudents handles GET /api/groups/available-students: students
// of the caller's active session who are not yet in a group.
func (h *Handler) ServeAvailableStudents(w http.ResponseWriter, r *http.Request) {
	actor, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "available students", err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "available students")
	defer cancel()

	list, err := h.Groups.AvailableStudents(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, "available students", err)
		return
	}
	out := make([]availableStudent, 0, len(list))
	for _, st := range list {
		out = append(out, availableStudent{ID: st.ID.Hex(), FullName: st.FullName, RollNo: st.RollNo, Email: st.Email})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"students": out})
}
