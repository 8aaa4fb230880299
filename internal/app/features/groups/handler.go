// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	"github.com/intellipmo/intellipmo/internal/app/groupformation"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/app/system/auth"
	"github.com/intellipmo/intellipmo/internal/app/system/timeouts"
	"github.com/intellipmo/intellipmo/internal/domain/models"
	"go.uber.org/zap"
)

// Coordinator is the group formation surface these handlers call.
type Coordinator interface {
	CreateGroup(ctx context.Context, actor models.Identity, req groupformation.Request) (models.Group, error)
	AvailableStudents(ctx context.Context, actor models.Identity) ([]models.Student, error)
	MyGroup(ctx context.Context, actor models.Identity) (models.Group, error)
	ListGroups(ctx context.Context, actor models.Identity) ([]models.Group, error)
}

type IdentityLoader interface {
	Load(ctx context.Context, a auth.Actor) (models.Identity, error)
}

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Groups     Coordinator
	Identities IdentityLoader
	Log        *zap.Logger
}

// NewHandler constructs a groups Handler. It is called from the bootstrap
// BuildHandler once the coordinator and accounts service exist.
func NewHandler(groups Coordinator, identities IdentityLoader, logger *zap.Logger) *Handler {
	return &Handler{
		Groups:     groups,
		Identities: identities,
		Log:        logger,
	}
}

func (h *Handler) current(r *http.Request) (models.Identity, error) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		return models.Identity{}, apierr.ErrUnauthenticated
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load identity")
	defer cancel()
	return h.Identities.Load(ctx, actor)
}
