// internal/app/features/domains/supervisors.go
package domains

import (
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/respond"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// supervisorRow is one line of the supervisors-by-domain table.
type supervisorRow struct {
	ID              primitive.ObjectID `json:"id"`
	Number          int                `json:"number"`
	DomainID        primitive.ObjectID `json:"domainId"`
	DomainName      string             `json:"domainName"`
	SupervisorName  string             `json:"supervisorName"`
	SupervisorEmail string             `json:"supervisorEmail"`
}

// ServeSupervisors handles GET /api/domains-supervisors[?domain_id=]: the
// supervisors enrolled in the caller's active session with their domain
// names. An empty list is returned when no session is active.
func (h *Handler) ServeSupervisors(w http.ResponseWriter, r *http.Request) {
	var domainFilter *primitive.ObjectID
	if raw := r.URL.Query().Get("domain_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Error(w, r, h.Log, "domain supervisors", apierr.ErrInvalidInput.WithMessage("Invalid domain selected."))
			return
		}
		domainFilter = &id
	}

	actor, err := h.current(r)
	if err != nil {
		respond.Error(w, r, h.Log, "domain supervisors", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "domain supervisors")
	defer cancel()

	active, err := h.Sessions.ActiveFor(ctx, actor)
	if err != nil {
		respond.Error(w, r, h.Log, "domain supervisors", err)
		return
	}
	rows := []supervisorRow{}
	if active == nil {
		respond.JSON(w, http.StatusOK, map[string]any{"supervisors": rows})
		return
	}

	sups, err := h.Supervisors.ListBySession(ctx, active.ID, domainFilter)
	if err != nil {
		respond.Error(w, r, h.Log, "domain supervisors", apierr.Internal(err))
		return
	}
	domains, err := h.Domains.List(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, "domain supervisors", apierr.Internal(err))
		return
	}
	names := make(map[primitive.ObjectID]string, len(domains))
	for _, d := range domains {
		names[d.ID] = d.Name
	}

	for i, s := range sups {
		name, ok := names[s.DomainID]
		if !ok {
			name = "—"
		}
		rows = append(rows, supervisorRow{
			ID:              s.ID,
			Number:          i + 1,
			DomainID:        s.DomainID,
			DomainName:      name,
			SupervisorName:  s.FullName,
			SupervisorEmail: s.Email,
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"supervisors": rows})
}
